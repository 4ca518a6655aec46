// Package config loads scheduler configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every knob the scheduler core and its ambient stack need at
// startup.
type Config struct {
	// DatastoreDSN selects the backend: a "postgres://"/"postgresql://" URL
	// connects to PostgreSQL; anything else is treated as a SQLite path.
	DatastoreDSN string

	// RuntimeVersion tags every job this process creates or touches.
	RuntimeVersion string

	// GCBeforeRuntimeVersion is the cutoff DeleteOldEntries uses.
	GCBeforeRuntimeVersion string

	// ScoreCardURL is the base URL of the score-card HTTP service. Empty
	// disables the reindex side effect (scorecard.Noop is used instead).
	ScoreCardURL string

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string

	// Lock durations, fed into scheduler.Scheduler.Lease so deployments can
	// tune lease lengths and tests can run the maintenance loops against a
	// compressed clock.
	DefaultLock time.Duration
	ShortExtend time.Duration
	LongExtend  time.Duration

	// UnlockStaleInterval, CheckIdleInterval, GCInterval, and StatsInterval
	// are the cron periods for the four maintenance passes.
	UnlockStaleInterval time.Duration
	CheckIdleInterval   time.Duration
	GCInterval          time.Duration
	StatsInterval       time.Duration
}

// Load reads configuration from the process environment, first merging in
// any ".env" file found in the working directory (godotenv.Load is a
// no-op, not an error, when the file is absent).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatastoreDSN:           getEnv("SCHEDULER_DATASTORE_DSN", "scheduler.db"),
		RuntimeVersion:         getEnv("SCHEDULER_RUNTIME_VERSION", "dev"),
		GCBeforeRuntimeVersion: getEnv("SCHEDULER_GC_BEFORE_RUNTIME_VERSION", ""),
		ScoreCardURL:           getEnv("SCHEDULER_SCORECARD_URL", ""),
		LogLevel:               getEnv("SCHEDULER_LOG_LEVEL", "info"),
		DefaultLock:            time.Hour,
		ShortExtend:            12 * time.Hour,
		LongExtend:             72 * time.Hour,
		UnlockStaleInterval:    5 * time.Minute,
		CheckIdleInterval:      15 * time.Minute,
		GCInterval:             24 * time.Hour,
		StatsInterval:          time.Minute,
	}

	var err error
	if cfg.DefaultLock, err = getDuration("SCHEDULER_DEFAULT_LOCK", cfg.DefaultLock); err != nil {
		return cfg, err
	}
	if cfg.ShortExtend, err = getDuration("SCHEDULER_SHORT_EXTEND", cfg.ShortExtend); err != nil {
		return cfg, err
	}
	if cfg.LongExtend, err = getDuration("SCHEDULER_LONG_EXTEND", cfg.LongExtend); err != nil {
		return cfg, err
	}
	if cfg.UnlockStaleInterval, err = getDuration("SCHEDULER_UNLOCK_STALE_INTERVAL", cfg.UnlockStaleInterval); err != nil {
		return cfg, err
	}
	if cfg.CheckIdleInterval, err = getDuration("SCHEDULER_CHECK_IDLE_INTERVAL", cfg.CheckIdleInterval); err != nil {
		return cfg, err
	}
	if cfg.GCInterval, err = getDuration("SCHEDULER_GC_INTERVAL", cfg.GCInterval); err != nil {
		return cfg, err
	}
	if cfg.StatsInterval, err = getDuration("SCHEDULER_STATS_INTERVAL", cfg.StatsInterval); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("config: invalid duration for %s: %w", key, err)
	}
	return d, nil
}
