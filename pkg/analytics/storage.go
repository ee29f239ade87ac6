package analytics

import (
	"context"
	"sync"
	"time"
)

// Storage is the append-only usage log the recorder writes to. Entries are
// bucketed per flag and UTC day so range queries scan only the days they
// need.
type Storage interface {
	// Append adds a record to its day bucket.
	Append(ctx context.Context, rec Record) error

	// Scan returns the records of one flag for one UTC day, plus the
	// number of malformed entries that were skipped.
	Scan(ctx context.Context, flagName string, day time.Time) ([]Record, int, error)

	// Close releases storage resources.
	Close() error
}

// MemoryStorage keeps usage records in process memory. Suitable for tests
// and single-instance deployments without durability requirements.
type MemoryStorage struct {
	buckets map[string][]Record
	mu      sync.RWMutex
}

// NewMemoryStorage creates an empty in-memory usage log.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string][]Record)}
}

func bucketKey(flagName, day string) string { return flagName + "|" + day }

// Append adds the record to its flag/day bucket.
func (s *MemoryStorage) Append(ctx context.Context, rec Record) error {
	key := bucketKey(rec.FlagName, rec.day())
	s.mu.Lock()
	s.buckets[key] = append(s.buckets[key], rec)
	s.mu.Unlock()
	return nil
}

// Scan returns a copy of the records for the flag and day. Typed in-memory
// records cannot be malformed, so the skipped count is always zero.
func (s *MemoryStorage) Scan(ctx context.Context, flagName string, day time.Time) ([]Record, int, error) {
	key := bucketKey(flagName, day.UTC().Format(dayFormat))
	s.mu.RLock()
	bucket := s.buckets[key]
	records := make([]Record, len(bucket))
	copy(records, bucket)
	s.mu.RUnlock()
	return records, 0, nil
}

// Close is a no-op for the memory storage.
func (s *MemoryStorage) Close() error { return nil }
