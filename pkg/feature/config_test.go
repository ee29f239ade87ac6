package feature_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/rollout/pkg/config"
	"github.com/dmitrymomot/rollout/pkg/feature"
)

func TestConfigDefaults(t *testing.T) {
	var cfg feature.Config
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
	assert.Equal(t, time.Hour, cfg.SchedulerInterval)
}

func TestNewServiceFromConfig(t *testing.T) {
	t.Setenv("FEATURE_CACHE_TTL", "30s")

	var cfg feature.Config
	require.NoError(t, config.Load(&cfg))

	store, err := feature.NewMemoryStore()
	require.NoError(t, err)

	svc, err := feature.NewServiceFromConfig(store, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	sched, err := feature.NewSchedulerFromConfig(store, cfg)
	require.NoError(t, err)
	assert.NotNil(t, sched)
}
