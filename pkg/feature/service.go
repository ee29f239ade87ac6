package feature

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dmitrymomot/rollout/pkg/analytics"
	"github.com/dmitrymomot/rollout/pkg/cache"
	"github.com/dmitrymomot/rollout/pkg/logger"
	"github.com/dmitrymomot/rollout/pkg/notify"
)

const anonymousCacheKey = "anonymous"

// Filter narrows ListFlags results. Zero-value fields are ignored.
type Filter struct {
	Prefix      string
	Status      Status
	Environment string
	Tags        []string
}

// Service is the feature flag engine's public surface: flag administration,
// evaluation, usage tracking and analytics. Construct one per process and
// inject it into callers; there is no package-level singleton.
//
// The evaluation path is read-only and degrades instead of erroring: a
// missing flag, a misconfigured strategy or an unreachable store all produce
// a disabled result with a reason code.
type Service struct {
	store     Store
	evaluator *Evaluator
	cache     *cache.TTLCache[Evaluation]
	recorder  *analytics.Recorder
	notifier  notify.Broadcaster
	clock     Clock
	logger    *slog.Logger

	storeTimeout time.Duration

	stopListener context.CancelFunc
	listenerWg   sync.WaitGroup
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	cacheTTL     time.Duration
	storeTimeout time.Duration
	recorder     *analytics.Recorder
	notifier     notify.Broadcaster
	clock        Clock
	logger       *slog.Logger
	seed         []*Flag
}

// WithCacheTTL sets the evaluation cache TTL (default 5 minutes).
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithStoreTimeout bounds store reads on the evaluation path (default 2s).
func WithStoreTimeout(d time.Duration) ServiceOption {
	return func(c *serviceConfig) {
		if d > 0 {
			c.storeTimeout = d
		}
	}
}

// WithRecorder enables asynchronous usage recording and analytics queries.
func WithRecorder(r *analytics.Recorder) ServiceOption {
	return func(c *serviceConfig) { c.recorder = r }
}

// WithNotifier publishes flag mutations and invalidates the local cache on
// changes announced by peer instances.
func WithNotifier(n notify.Broadcaster) ServiceOption {
	return func(c *serviceConfig) { c.notifier = n }
}

// WithClock overrides the service time source.
func WithClock(clock Clock) ServiceOption {
	return func(c *serviceConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(c *serviceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSeedFlags stores the given flags at startup, typically loaded from a
// YAML definition file. Seeding validates and overwrites by name.
func WithSeedFlags(flags ...*Flag) ServiceOption {
	return func(c *serviceConfig) { c.seed = append(c.seed, flags...) }
}

// NewService creates the flag engine on top of the given store.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	cfg := &serviceConfig{
		cacheTTL:     5 * time.Minute,
		storeTimeout: 2 * time.Second,
		clock:        systemClock,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Service{
		store:        store,
		evaluator:    NewEvaluator(WithEvaluatorClock(cfg.clock)),
		cache:        cache.New[Evaluation](cfg.cacheTTL, cache.WithClock[Evaluation](func() time.Time { return cfg.clock() })),
		recorder:     cfg.recorder,
		notifier:     cfg.notifier,
		clock:        cfg.clock,
		logger:       cfg.logger,
		storeTimeout: cfg.storeTimeout,
	}

	for _, flag := range cfg.seed {
		if err := flag.Validate(); err != nil {
			return nil, err
		}
		now := s.clock()
		if flag.CreatedAt.IsZero() {
			flag.CreatedAt = now
		}
		flag.UpdatedAt = now
		if err := store.Put(context.Background(), flag); err != nil {
			return nil, err
		}
	}

	if s.notifier != nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.stopListener = cancel
		sub, err := s.notifier.Subscribe(ctx)
		if err != nil {
			cancel()
			return nil, err
		}
		s.listenerWg.Add(1)
		go s.listenChanges(sub)
	}

	return s, nil
}

// listenChanges invalidates cached evaluations for flags mutated by peer
// instances. The local mutation path invalidates directly as well, so
// receiving our own events is harmless.
func (s *Service) listenChanges(sub notify.Subscription) {
	defer s.listenerWg.Done()
	for change := range sub.C() {
		s.InvalidateFlag(change.FlagName)
	}
}

// Close stops the change listener. The store, recorder and notifier are
// owned by the caller and closed separately.
func (s *Service) Close() error {
	if s.stopListener != nil {
		s.stopListener()
		s.listenerWg.Wait()
	}
	return nil
}

// CreateFlag validates and stores a new flag. Creating a name that already
// exists fails with ErrFlagExists.
func (s *Service) CreateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}
	if _, err := s.store.Get(ctx, flag.Name); err == nil {
		return ErrFlagExists
	} else if !errors.Is(err, ErrFlagNotFound) {
		return err
	}

	now := s.clock()
	flag.CreatedAt = now
	flag.UpdatedAt = now
	if err := s.store.Put(ctx, flag); err != nil {
		return err
	}
	s.afterMutation(ctx, flag.Name, notify.OperationCreate)
	return nil
}

// UpdateFlag validates and replaces an existing flag in full. Last write
// wins; concurrent updates are not fenced.
func (s *Service) UpdateFlag(ctx context.Context, flag *Flag) error {
	if err := flag.Validate(); err != nil {
		return err
	}
	existing, err := s.store.Get(ctx, flag.Name)
	if err != nil {
		return err
	}

	flag.CreatedAt = existing.CreatedAt
	if flag.CreatedBy == "" {
		flag.CreatedBy = existing.CreatedBy
	}
	flag.UpdatedAt = s.clock()
	if err := s.store.Put(ctx, flag); err != nil {
		return err
	}
	s.afterMutation(ctx, flag.Name, notify.OperationUpdate)
	return nil
}

// DeleteFlag removes a flag. Deleting an unknown flag fails with
// ErrFlagNotFound.
func (s *Service) DeleteFlag(ctx context.Context, name string) error {
	deleted, err := s.store.Delete(ctx, name)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrFlagNotFound
	}
	s.afterMutation(ctx, name, notify.OperationDelete)
	return nil
}

// GetFlag returns the named flag or ErrFlagNotFound.
func (s *Service) GetFlag(ctx context.Context, name string) (*Flag, error) {
	return s.store.Get(ctx, name)
}

// ListFlags returns flags matching the filter.
func (s *Service) ListFlags(ctx context.Context, filter Filter) ([]*Flag, error) {
	names, err := s.store.ListKeys(ctx, filter.Prefix)
	if err != nil {
		return nil, err
	}

	flags := make([]*Flag, 0, len(names))
	for _, name := range names {
		flag, err := s.store.Get(ctx, name)
		if errors.Is(err, ErrFlagNotFound) {
			// Deleted between list and get.
			continue
		}
		if err != nil {
			return nil, err
		}
		if matchesFilter(flag, filter) {
			flags = append(flags, flag)
		}
	}
	return flags, nil
}

func matchesFilter(flag *Flag, filter Filter) bool {
	if filter.Status != "" && flag.Status != filter.Status {
		return false
	}
	if filter.Environment != "" && len(flag.Environments) > 0 &&
		!slices.Contains(flag.Environments, filter.Environment) {
		return false
	}
	for _, tag := range filter.Tags {
		if !slices.Contains(flag.Tags, tag) {
			return false
		}
	}
	return true
}

// Evaluate decides whether the flag is enabled for the user in the given
// environment. It never returns an error: absence, misconfiguration and
// store failures all degrade to a disabled result with a reason code.
func (s *Service) Evaluate(ctx context.Context, flagName string, user UserContext, environment string) Evaluation {
	return s.EvaluateWithDefault(ctx, flagName, user, environment, Value{})
}

// EvaluateWithDefault is Evaluate with a caller-supplied fallback value used
// when the flag is missing or the store is unreachable with no cached
// result.
func (s *Service) EvaluateWithDefault(ctx context.Context, flagName string, user UserContext, environment string, fallback Value) Evaluation {
	key := evalCacheKey(flagName, user, environment)

	if eval, ok := s.cache.Get(key); ok {
		if eval.Reason == ReasonFlagNotFound {
			// The fallback belongs to the caller, not to the cached outcome.
			eval.Value = fallback
		}
		s.recordUsage(eval, user, environment)
		return eval
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	flag, err := s.store.Get(storeCtx, flagName)
	cancel()

	switch {
	case errors.Is(err, ErrFlagNotFound):
		eval := Evaluation{
			FlagName:    flagName,
			Enabled:     false,
			Reason:      ReasonFlagNotFound,
			EvaluatedAt: s.clock(),
		}
		s.cache.Set(key, eval)
		eval.Value = fallback
		s.recordUsage(eval, user, environment)
		return eval
	case err != nil:
		// Store down: serve the last cached result even if expired,
		// else fail closed with the fallback value.
		if stale, ok := s.cache.GetStale(key); ok {
			if stale.Reason == ReasonFlagNotFound {
				stale.Value = fallback
			}
			s.recordUsage(stale, user, environment)
			return stale
		}
		s.logger.Warn("flag store unavailable during evaluation",
			logger.FlagName(flagName),
			logger.UserID(user.UserID),
			logger.Environment(environment),
			logger.Error(err))
		eval := Evaluation{
			FlagName:    flagName,
			Enabled:     false,
			Value:       fallback,
			Reason:      ReasonStoreUnavailable,
			EvaluatedAt: s.clock(),
		}
		s.recordUsage(eval, user, environment)
		return eval
	}

	eval := s.evaluateFlag(flag, user, environment)
	s.cache.Set(key, eval)
	s.recordUsage(eval, user, environment)
	return eval
}

func (s *Service) evaluateFlag(flag *Flag, user UserContext, environment string) Evaluation {
	enabled, reason := s.evaluator.Evaluate(flag, user, environment)

	eval := Evaluation{
		FlagName:    flag.Name,
		Enabled:     enabled,
		Value:       flag.DefaultValue,
		Reason:      reason,
		EvaluatedAt: s.clock(),
	}
	if enabled && len(flag.Variants) > 0 {
		if variant, ok := SelectVariant(flag.Variants, BucketFor(user)); ok {
			eval.Variant = variant.Name
			eval.Value = variant.Value
		}
	}
	return eval
}

// TrackUsage records an externally observed flag outcome, e.g. when a
// client SDK evaluated the flag locally. Fire-and-forget: it never blocks
// and never fails the caller.
func (s *Service) TrackUsage(ctx context.Context, flagName, userID string, enabled bool, variant, environment string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(analytics.Record{
		FlagName:    flagName,
		UserID:      userID,
		Enabled:     enabled,
		Variant:     variant,
		Environment: environment,
		Timestamp:   s.clock(),
	})
}

// GetAnalytics aggregates recorded usage of the flag over the date range,
// optionally restricted to one environment.
func (s *Service) GetAnalytics(ctx context.Context, flagName string, from, to time.Time, environment string) (analytics.Report, error) {
	if s.recorder == nil {
		return analytics.Report{}, ErrAnalyticsDisabled
	}
	return s.recorder.Report(ctx, flagName, from, to, environment)
}

// InvalidateFlag drops all cached evaluations of the flag. Called on local
// mutations and on change events from peers; also used by the gradual
// rollout scheduler after it advances a percentage.
func (s *Service) InvalidateFlag(name string) {
	s.cache.DeletePrefix(name + "|")
}

func (s *Service) recordUsage(eval Evaluation, user UserContext, environment string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(analytics.Record{
		FlagName:    eval.FlagName,
		UserID:      user.UserID,
		Enabled:     eval.Enabled,
		Variant:     eval.Variant,
		Environment: environment,
		Timestamp:   s.clock(),
	})
}

// afterMutation invalidates the local cache and announces the change.
// Publishing is best-effort: a failed publish only delays peer invalidation
// until their cache TTL expires.
func (s *Service) afterMutation(ctx context.Context, name string, op notify.Operation) {
	s.InvalidateFlag(name)
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notify.Change{FlagName: name, Operation: op}); err != nil {
		s.logger.Warn("failed to publish flag change",
			logger.FlagName(name),
			slog.String("operation", string(op)),
			logger.Error(err))
	}
}

func evalCacheKey(flagName string, user UserContext, environment string) string {
	userKey := user.UserID
	if userKey == "" {
		userKey = anonymousCacheKey
	}
	return flagName + "|" + userKey + "|" + environment
}
