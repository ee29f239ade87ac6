package feature

import "context"

// Store is the persistence abstraction the engine depends on. Flags are
// addressed by unique name; no assumptions are made about the backing
// storage technology. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the flag with the given name, or ErrFlagNotFound.
	Get(ctx context.Context, name string) (*Flag, error)

	// Put creates or replaces a flag. Last write wins; there is no
	// version fencing on concurrent updates.
	Put(ctx context.Context, flag *Flag) error

	// Delete removes a flag and reports whether it existed.
	Delete(ctx context.Context, name string) (bool, error)

	// ListKeys returns the names of stored flags matching the prefix.
	// An empty prefix matches everything.
	ListKeys(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources used by the store.
	Close() error
}
