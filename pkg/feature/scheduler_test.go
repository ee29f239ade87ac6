package feature_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/feature"
)

func gradualFlag(start time.Time, incrementPerDay float64) *feature.Flag {
	return &feature.Flag{
		Name:   "gradual.rollout",
		Status: feature.StatusActive,
		Rollout: &feature.RolloutConfig{
			Strategy:         feature.StrategyGradual,
			StartDate:        &start,
			GradualIncrement: &incrementPerDay,
		},
	}
}

func TestGradualScheduler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("NilStore", func(t *testing.T) {
		t.Parallel()
		_, err := feature.NewGradualScheduler(nil)
		assert.ErrorIs(t, err, feature.ErrStoreNil)
	})

	t.Run("AdvancesActiveGradualFlag", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := newFakeClock(start.AddDate(0, 0, 3))

		store, err := feature.NewMemoryStore(gradualFlag(start, 10))
		require.NoError(t, err)

		var invalidated []string
		sched, err := feature.NewGradualScheduler(store,
			feature.WithSchedulerClock(clock.Now),
			feature.WithInvalidator(func(name string) { invalidated = append(invalidated, name) }),
		)
		require.NoError(t, err)

		sched.RunOnce(ctx)

		flag, err := store.Get(ctx, "gradual.rollout")
		require.NoError(t, err)
		require.NotNil(t, flag.Rollout.Percentage)
		assert.InDelta(t, 30, *flag.Rollout.Percentage, 1e-9)
		assert.Equal(t, clock.Now(), flag.UpdatedAt)
		assert.Equal(t, []string{"gradual.rollout"}, invalidated)
	})

	t.Run("CapsAtHundred", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := newFakeClock(start.AddDate(0, 0, 30))

		store, err := feature.NewMemoryStore(gradualFlag(start, 10))
		require.NoError(t, err)

		sched, err := feature.NewGradualScheduler(store, feature.WithSchedulerClock(clock.Now))
		require.NoError(t, err)
		sched.RunOnce(ctx)

		flag, err := store.Get(ctx, "gradual.rollout")
		require.NoError(t, err)
		assert.InDelta(t, 100, *flag.Rollout.Percentage, 1e-9)
	})

	t.Run("NoWriteWhenUnchanged", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := newFakeClock(start.AddDate(0, 0, 3))

		store, err := feature.NewMemoryStore(gradualFlag(start, 10))
		require.NoError(t, err)

		var invalidations int
		sched, err := feature.NewGradualScheduler(store,
			feature.WithSchedulerClock(clock.Now),
			feature.WithInvalidator(func(string) { invalidations++ }),
		)
		require.NoError(t, err)

		sched.RunOnce(ctx)
		sched.RunOnce(ctx)
		assert.Equal(t, 1, invalidations)
	})

	t.Run("SkipsNonGradualAndInactive", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := newFakeClock(start.AddDate(0, 0, 3))

		paused := gradualFlag(start, 10)
		paused.Name = "gradual.paused"
		paused.Status = feature.StatusInactive

		percentage := validFlag()

		store, err := feature.NewMemoryStore(paused, percentage)
		require.NoError(t, err)

		sched, err := feature.NewGradualScheduler(store, feature.WithSchedulerClock(clock.Now))
		require.NoError(t, err)
		sched.RunOnce(ctx)

		got, err := store.Get(ctx, "gradual.paused")
		require.NoError(t, err)
		assert.Nil(t, got.Rollout.Percentage)

		pct, err := store.Get(ctx, percentage.Name)
		require.NoError(t, err)
		assert.Equal(t, 25.0, *pct.Rollout.Percentage)
	})

	t.Run("StartRunsOnTicks", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		clock := newFakeClock(start.AddDate(0, 0, 5))

		store, err := feature.NewMemoryStore(gradualFlag(start, 10))
		require.NoError(t, err)

		sched, err := feature.NewGradualScheduler(store,
			feature.WithSchedulerClock(clock.Now),
			feature.WithSchedulerInterval(10*time.Millisecond),
		)
		require.NoError(t, err)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- sched.Start(runCtx) }()

		require.Eventually(t, func() bool {
			flag, err := store.Get(ctx, "gradual.rollout")
			return err == nil && flag.Rollout.Percentage != nil
		}, time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop on context cancellation")
		}
	})
}
