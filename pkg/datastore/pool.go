package datastore

import (
	"fmt"
	"strings"
	"time"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns sensible defaults sized for a fleet of
// short-lived worker processes hammering one shared job table.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

// ConfigurePool applies cfg to the store's underlying connection pool.
func (s *Store) ConfigurePool(cfg PoolConfig) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("datastore: get underlying *sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return nil
}

// OpenWithPool opens a datastore and immediately applies cfg to its pool.
func OpenWithPool(dsn string, cfg PoolConfig) (*Store, error) {
	s, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.ConfigurePool(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// SQLitePoolConfig returns pool settings for the embedded SQLite backend.
// SQLite serializes all writers behind a single file lock, so a pool sized
// like Postgres's just produces SQLITE_BUSY contention instead of
// throughput: one connection does all the writing, a couple more let reads
// proceed without waiting on it.
func SQLitePoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 0,
		ConnMaxIdleTime: 0,
	}
}

// WorkerFleetPoolConfig returns pool settings for a cmd/worker process in a
// fleet of many such processes against Postgres, each one leasing jobs as
// fast as LockAvailable allows: more headroom than DefaultPoolConfig for
// the concurrent lease/complete traffic a single worker's goroutine pool
// generates, with a shorter idle timeout so a quiet worker doesn't hold
// Postgres connections it isn't using.
func WorkerFleetPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: 10 * time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
	}
}

// SchedulerPoolConfig returns pool settings for cmd/scheduler: one process
// per deployment running a handful of periodic maintenance passes
// (UnlockStaleProcessing, CheckIdle, DeleteOldEntries, the stats
// collector), never the high-concurrency lease traffic a worker fleet
// generates. A small pool is enough and keeps the scheduler from holding
// connections a busier worker fleet could use instead.
func SchedulerPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// PoolConfigForDSN picks SQLitePoolConfig or base between a Postgres
// preset and SQLite's, so callers don't have to duplicate Open's own
// "postgres://"/"postgresql://" scheme check to pick a sensible pool size.
// base is returned unchanged for a Postgres dsn; SQLitePoolConfig()
// overrides it for anything else, since SQLite's single-writer behavior
// holds regardless of which Postgres-sized preset the caller picked.
func PoolConfigForDSN(dsn string, base PoolConfig) PoolConfig {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return base
	}
	return SQLitePoolConfig()
}
