package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/cache"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedCache(t *testing.T, ttl time.Duration) (*cache.TTLCache[string], *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return cache.New[string](ttl, cache.WithClock[string](clock.Now)), clock
}

func TestTTLCache(t *testing.T) {
	t.Parallel()

	t.Run("PanicsOnNonPositiveTTL", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.New[int](0) })
		assert.Panics(t, func() { cache.New[int](-time.Second) })
	})

	t.Run("SetGet", func(t *testing.T) {
		t.Parallel()
		c, _ := newClockedCache(t, time.Minute)
		c.Set("k", "v")

		got, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v", got)

		_, ok = c.Get("missing")
		assert.False(t, ok)
	})

	t.Run("ExpiryIsAMiss", func(t *testing.T) {
		t.Parallel()
		c, clock := newClockedCache(t, time.Minute)
		c.Set("k", "v")

		clock.Advance(59 * time.Second)
		_, ok := c.Get("k")
		assert.True(t, ok)

		clock.Advance(2 * time.Second)
		_, ok = c.Get("k")
		assert.False(t, ok)
	})

	t.Run("GetStaleSurvivesExpiry", func(t *testing.T) {
		t.Parallel()
		c, clock := newClockedCache(t, time.Minute)
		c.Set("k", "v")
		clock.Advance(time.Hour)

		_, ok := c.Get("k")
		require.False(t, ok)

		got, ok := c.GetStale("k")
		require.True(t, ok)
		assert.Equal(t, "v", got)

		_, ok = c.GetStale("missing")
		assert.False(t, ok)
	})

	t.Run("SetRefreshesExpiry", func(t *testing.T) {
		t.Parallel()
		c, clock := newClockedCache(t, time.Minute)
		c.Set("k", "v1")
		clock.Advance(45 * time.Second)
		c.Set("k", "v2")
		clock.Advance(45 * time.Second)

		got, ok := c.Get("k")
		require.True(t, ok)
		assert.Equal(t, "v2", got)
	})

	t.Run("Delete", func(t *testing.T) {
		t.Parallel()
		c, _ := newClockedCache(t, time.Minute)
		c.Set("k", "v")

		assert.True(t, c.Delete("k"))
		assert.False(t, c.Delete("k"))
		_, ok := c.GetStale("k")
		assert.False(t, ok)
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		t.Parallel()
		c, _ := newClockedCache(t, time.Minute)
		c.Set("flag-a|u1|prod", "1")
		c.Set("flag-a|u2|prod", "2")
		c.Set("flag-ab|u1|prod", "3")
		c.Set("flag-b|u1|prod", "4")

		removed := c.DeletePrefix("flag-a|")
		assert.Equal(t, 2, removed)
		assert.Equal(t, 2, c.Len())

		_, ok := c.Get("flag-ab|u1|prod")
		assert.True(t, ok)
		_, ok = c.Get("flag-b|u1|prod")
		assert.True(t, ok)
	})

	t.Run("Purge", func(t *testing.T) {
		t.Parallel()
		c, clock := newClockedCache(t, time.Minute)
		c.Set("old", "v")
		clock.Advance(2 * time.Minute)
		c.Set("fresh", "v")

		assert.Equal(t, 1, c.Purge())
		assert.Equal(t, 1, c.Len())

		_, ok := c.GetStale("old")
		assert.False(t, ok)
		_, ok = c.Get("fresh")
		assert.True(t, ok)
	})

	t.Run("Clear", func(t *testing.T) {
		t.Parallel()
		c, _ := newClockedCache(t, time.Minute)
		c.Set("a", "1")
		c.Set("b", "2")
		c.Clear()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		t.Parallel()
		c := cache.New[int](time.Minute)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					key := string(rune('a' + n))
					c.Set(key, j)
					c.Get(key)
					c.GetStale(key)
					c.DeletePrefix(key)
				}
			}(i)
		}
		wg.Wait()
	})
}
