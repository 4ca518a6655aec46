// Package scheduler implements the job lifecycle state machine:
// Trigger/createOrUpdate, LockAvailable, UnlockStaleProcessing, CheckIdle,
// Complete, and DeleteOldEntries. Every state-mutating operation re-reads
// and re-validates its fencing precondition inside an optimistic
// transaction retried by pkg/retry — there is no other coordination
// between workers.
package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pubjobs/scheduler/pkg/job"
	"github.com/pubjobs/scheduler/pkg/pkgmeta"
	"github.com/pubjobs/scheduler/pkg/popularity"
	"github.com/pubjobs/scheduler/pkg/retry"
)

// Lease durations.
const (
	// DefaultLock is the lease granted by LockAvailable.
	DefaultLock = time.Hour
	// ShortExtend is the idle cool-down applied to freshly-current jobs and
	// to the backoff formula for a handful of consecutive failures.
	ShortExtend = 12 * time.Hour
	// LongExtend is the idle cool-down applied after success or chronic
	// failure.
	LongExtend = 3 * 24 * time.Hour
	// MaxErrorHours caps the hourly bump extendLock adds per errorCount.
	MaxErrorHours = 168
)

// LockAvailableLimit bounds how many candidates LockAvailable considers
// before picking one.
const LockAvailableLimit = 100

// DeleteBatchSize bounds how many jobs DeleteOldEntries removes per
// transaction.
const DeleteBatchSize = 20

// IdlePredicate decides whether an idle job's package has changed enough to
// warrant re-processing. It may perform I/O; an error is logged and the job
// is skipped for this pass.
type IdlePredicate func(ctx context.Context, packageName, packageVersion string, updated time.Time) (bool, error)

// LeaseConfig holds the lease/backoff durations LockAvailable,
// createOrUpdate, CheckIdle, and extendLock compute against. It is a field
// on Scheduler rather than a set of bare constants so a deployment's
// cmd/scheduler and cmd/worker can tune it from pkg/config, and so tests can
// run the maintenance loops against a compressed clock instead of waiting
// out real lease durations.
type LeaseConfig struct {
	// DefaultLock is the lease granted by LockAvailable.
	DefaultLock time.Duration
	// ShortExtend is the idle cool-down applied to freshly-current jobs and
	// to the backoff formula for a handful of consecutive failures.
	ShortExtend time.Duration
	// LongExtend is the idle cool-down applied after success or chronic
	// failure.
	LongExtend time.Duration
	// MaxErrorHours caps the hourly bump extendLock adds per errorCount.
	MaxErrorHours int
}

// DefaultLeaseConfig returns the scheduler core's standard lease durations.
func DefaultLeaseConfig() LeaseConfig {
	return LeaseConfig{
		DefaultLock:   DefaultLock,
		ShortExtend:   ShortExtend,
		LongExtend:    LongExtend,
		MaxErrorHours: MaxErrorHours,
	}
}

// Scheduler holds the collaborators every lifecycle operation needs: the
// job table, the package-metadata and popularity lookups used to compute
// priority and freshness, the runtime-version this process is pinned to,
// the lease durations, and the retry policy wrapping every mutation.
type Scheduler struct {
	Store          job.Store
	PkgMeta        pkgmeta.Store
	Popularity     popularity.Oracle
	RuntimeVersion string
	Lease          LeaseConfig
	Retry          retry.Config
	Log            zerolog.Logger
}

// New builds a Scheduler with the default lease durations and retry policy.
func New(store job.Store, pm pkgmeta.Store, pop popularity.Oracle, runtimeVersion string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Store:          store,
		PkgMeta:        pm,
		Popularity:     pop,
		RuntimeVersion: runtimeVersion,
		Lease:          DefaultLeaseConfig(),
		Retry:          retry.DefaultConfig(),
		Log:            log,
	}
}

// extendLock computes the next LockedUntil for an idle job: base is
// s.Lease.LongExtend when errorCount is 0 (success) or greater than 3
// (chronic failure), otherwise s.Lease.ShortExtend; the hourly bump is
// clamped to s.Lease.MaxErrorHours.
func (s *Scheduler) extendLock(now time.Time, errorCount int) time.Time {
	base := s.Lease.ShortExtend
	if errorCount == 0 || errorCount > 3 {
		base = s.Lease.LongExtend
	}
	bump := errorCount
	if bump > s.Lease.MaxErrorHours {
		bump = s.Lease.MaxErrorHours
	}
	return now.Add(base).Add(time.Duration(bump) * time.Hour)
}

// computePriority recomputes a job's priority from the popularity oracle
// and an optional caller override.
func (s *Scheduler) computePriority(ctx context.Context, packageName string, fixed *int) int {
	pop := 0.0
	if s.Popularity != nil {
		pop = s.Popularity.Popularity(ctx, packageName)
	}
	return job.FixPriority(job.ComputePriority(pop), fixed)
}

// retryTx wraps fn in the scheduler's retry policy.
func (s *Scheduler) retryTx(ctx context.Context, fn job.TxFunc) error {
	return retry.Tx(ctx, s.Retry, func(ctx context.Context) error {
		return s.Store.RunInTransaction(ctx, fn)
	})
}
