package cache

import (
	"strings"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache is a thread-safe string-keyed cache with per-cache TTL.
// Expired entries are purged lazily on read and kept available through
// GetStale so callers can fall back to the last known value when their
// backing store is unavailable. String keys allow prefix invalidation,
// which the feature engine uses to drop all cached evaluations of a flag
// on mutation.
type TTLCache[V any] struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
	mu      sync.RWMutex
}

// Option configures a TTLCache.
type Option[V any] func(*TTLCache[V])

// WithClock overrides the cache's time source for deterministic expiry in
// tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *TTLCache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a TTL cache. The TTL must be positive, otherwise it panics.
func New[V any](ttl time.Duration, opts ...Option[V]) *TTLCache[V] {
	if ttl <= 0 {
		panic("cache: TTL must be positive")
	}
	c := &TTLCache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the live value for the key. Expired entries are treated as
// misses but left in place for GetStale.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetStale returns the value for the key regardless of expiry. Used as the
// last-resort fallback when the backing store cannot be reached.
func (c *TTLCache[V]) GetStale(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under the key with the cache's TTL.
func (c *TTLCache[V]) Set(key string, value V) {
	expiresAt := c.now().Add(c.ttl)
	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Delete removes a single entry and reports whether it existed.
func (c *TTLCache[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// DeletePrefix removes every entry whose key starts with the prefix and
// returns the number of entries removed.
func (c *TTLCache[V]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, including expired ones not yet purged.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Purge drops entries that expired before now and returns how many were
// removed. Callers with long-lived caches can run it periodically to bound
// memory.
func (c *TTLCache[V]) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}
