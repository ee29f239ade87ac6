package feature

import "time"

// Config carries the engine's environment-tunable settings. Load it with
// the config package and feed it to NewServiceFromConfig.
type Config struct {
	// CacheTTL bounds how long evaluation results are memoized.
	CacheTTL time.Duration `env:"FEATURE_CACHE_TTL" envDefault:"300s"`
	// StoreTimeout bounds flag store reads on the evaluation path.
	StoreTimeout time.Duration `env:"FEATURE_STORE_TIMEOUT" envDefault:"2s"`
	// SchedulerInterval is the gradual rollout recompute cadence.
	SchedulerInterval time.Duration `env:"FEATURE_SCHEDULER_INTERVAL" envDefault:"1h"`
}

// NewServiceFromConfig creates a Service applying the environment-derived
// settings, with further options layered on top.
func NewServiceFromConfig(store Store, cfg Config, opts ...ServiceOption) (*Service, error) {
	base := []ServiceOption{
		WithCacheTTL(cfg.CacheTTL),
		WithStoreTimeout(cfg.StoreTimeout),
	}
	return NewService(store, append(base, opts...)...)
}

// NewSchedulerFromConfig creates a GradualScheduler on the environment-derived
// cadence, with further options layered on top.
func NewSchedulerFromConfig(store Store, cfg Config, opts ...SchedulerOption) (*GradualScheduler, error) {
	base := []SchedulerOption{WithSchedulerInterval(cfg.SchedulerInterval)}
	return NewGradualScheduler(store, append(base, opts...)...)
}
