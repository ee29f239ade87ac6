// Package cache provides a thread-safe string-keyed TTL cache with prefix
// invalidation and stale reads.
//
// The cache is an optimization layer: correctness never depends on it.
// Expired entries become read misses immediately but remain reachable via
// GetStale, which lets callers serve a last known value when their backing
// store is down.
//
// Usage:
//
//	c := cache.New[string](5 * time.Minute)
//	c.Set("flag:user1:prod", "enabled")
//	v, ok := c.Get("flag:user1:prod")
//	c.DeletePrefix("flag:") // invalidate every entry for the flag
package cache
