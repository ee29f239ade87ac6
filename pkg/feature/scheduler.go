package feature

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/dmitrymomot/rollout/pkg/logger"
	"github.com/dmitrymomot/rollout/pkg/notify"
)

// GradualScheduler advances the stored percentage of active gradual-rollout
// flags over time. A single instance runs per process; the tick loop is
// serial, so no two runs overlap. Per-flag failures are logged and skipped,
// never fatal.
type GradualScheduler struct {
	store      Store
	interval   time.Duration
	clock      Clock
	logger     *slog.Logger
	notifier   notify.Broadcaster
	invalidate func(flagName string)
}

// SchedulerOption configures a GradualScheduler.
type SchedulerOption func(*GradualScheduler)

// WithSchedulerInterval overrides the tick cadence (default hourly).
func WithSchedulerInterval(d time.Duration) SchedulerOption {
	return func(s *GradualScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithSchedulerClock overrides the scheduler time source.
func WithSchedulerClock(clock Clock) SchedulerOption {
	return func(s *GradualScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithSchedulerLogger sets the scheduler logger.
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *GradualScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchedulerNotifier publishes an update event for each advanced flag so
// peer instances invalidate their caches.
func WithSchedulerNotifier(n notify.Broadcaster) SchedulerOption {
	return func(s *GradualScheduler) { s.notifier = n }
}

// WithInvalidator hooks local cache invalidation, typically
// Service.InvalidateFlag.
func WithInvalidator(fn func(flagName string)) SchedulerOption {
	return func(s *GradualScheduler) { s.invalidate = fn }
}

// NewGradualScheduler creates the background percentage updater.
func NewGradualScheduler(store Store, opts ...SchedulerOption) (*GradualScheduler, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	s := &GradualScheduler{
		store:    store,
		interval: time.Hour,
		clock:    systemClock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start runs the scheduler until the context is cancelled. The first pass
// runs immediately, then on every tick. Returns the context error on
// shutdown.
func (s *GradualScheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("gradual rollout scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce advances every active gradual flag whose effective percentage
// moved. Start calls it on each tick; it can also be invoked directly to
// force a recompute.
func (s *GradualScheduler) RunOnce(ctx context.Context) {
	names, err := s.store.ListKeys(ctx, "")
	if err != nil {
		s.logger.Error("failed to list flags for gradual rollout",
			logger.Error(err))
		return
	}

	now := s.clock()
	for _, name := range names {
		if err := s.advanceFlag(ctx, name, now); err != nil {
			s.logger.Error("failed to advance gradual rollout",
				logger.FlagName(name),
				logger.Error(err))
		}
	}
}

func (s *GradualScheduler) advanceFlag(ctx context.Context, name string, now time.Time) error {
	flag, err := s.store.Get(ctx, name)
	if err != nil {
		return err
	}
	if flag.Status != StatusActive || flag.Rollout == nil ||
		flag.Rollout.Strategy != StrategyGradual ||
		flag.Rollout.StartDate == nil || flag.Rollout.GradualIncrement == nil {
		return nil
	}

	effective := gradualPercentage(*flag.Rollout.GradualIncrement, *flag.Rollout.StartDate, now)
	if flag.Rollout.Percentage != nil && math.Abs(*flag.Rollout.Percentage-effective) < 1e-9 {
		return nil
	}

	flag.Rollout.Percentage = &effective
	flag.UpdatedAt = now
	if err := s.store.Put(ctx, flag); err != nil {
		return err
	}

	s.logger.Info("advanced gradual rollout",
		logger.FlagName(name),
		slog.Float64("percentage", effective))

	if s.invalidate != nil {
		s.invalidate(name)
	}
	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, notify.Change{FlagName: name, Operation: notify.OperationUpdate}); err != nil {
			s.logger.Warn("failed to publish gradual rollout update",
				logger.FlagName(name),
				logger.Error(err))
		}
	}
	return nil
}
