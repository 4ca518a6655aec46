package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pubjobs/scheduler/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SCHEDULER_DATASTORE_DSN", "")
	t.Setenv("SCHEDULER_RUNTIME_VERSION", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "scheduler.db", cfg.DatastoreDSN)
	require.Equal(t, "dev", cfg.RuntimeVersion)
	require.Equal(t, time.Minute, cfg.StatsInterval)
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_RUNTIME_VERSION", "2026-08-03")
	t.Setenv("SCHEDULER_GC_INTERVAL", "1h")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "2026-08-03", cfg.RuntimeVersion)
	require.Equal(t, time.Hour, cfg.GCInterval)
}

func TestLoad_InvalidDurationErrors(t *testing.T) {
	t.Setenv("SCHEDULER_GC_INTERVAL", "not-a-duration")
	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_LeaseDurationsOverrideFromEnv(t *testing.T) {
	t.Setenv("SCHEDULER_DEFAULT_LOCK", "1s")
	t.Setenv("SCHEDULER_SHORT_EXTEND", "2s")
	t.Setenv("SCHEDULER_LONG_EXTEND", "3s")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, time.Second, cfg.DefaultLock)
	require.Equal(t, 2*time.Second, cfg.ShortExtend)
	require.Equal(t, 3*time.Second, cfg.LongExtend)
}
