package feature

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation. It is the default
// backend for tests and single-process deployments.
type MemoryStore struct {
	flags map[string]*Flag
	mu    sync.RWMutex
}

// NewMemoryStore creates an in-memory flag store, optionally seeded with
// initial flags. Seed flags must pass validation.
func NewMemoryStore(seed ...*Flag) (*MemoryStore, error) {
	s := &MemoryStore{flags: make(map[string]*Flag, len(seed))}
	for _, flag := range seed {
		if flag == nil {
			continue
		}
		if err := flag.Validate(); err != nil {
			return nil, err
		}
		s.flags[flag.Name] = flag.Clone()
	}
	return s, nil
}

// Get returns a deep copy of the named flag.
func (s *MemoryStore) Get(ctx context.Context, name string) (*Flag, error) {
	s.mu.RLock()
	flag, exists := s.flags[name]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrFlagNotFound
	}
	return flag.Clone(), nil
}

// Put stores a deep copy of the flag, replacing any existing entry.
func (s *MemoryStore) Put(ctx context.Context, flag *Flag) error {
	if flag == nil || flag.Name == "" {
		return ErrInvalidFlag
	}

	s.mu.Lock()
	s.flags[flag.Name] = flag.Clone()
	s.mu.Unlock()
	return nil
}

// Delete removes the named flag and reports whether it existed.
func (s *MemoryStore) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flags[name]; !exists {
		return false, nil
	}
	delete(s.flags, name)
	return true, nil
}

// ListKeys returns the names of flags matching the prefix, sorted for
// deterministic iteration.
func (s *MemoryStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.flags))
	for name := range s.flags {
		if strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
