package job

import (
	"context"
	"time"
)

// Filter selects jobs by the indexed attributes the scheduler core queries
// on. Zero-value fields are treated as "unconstrained" except where noted.
type Filter struct {
	RuntimeVersion string
	Service        Service
	State          State

	// LockedBefore, when non-nil, restricts to jobs whose LockedUntil is
	// non-null and strictly before the given time (used by the stale-lease
	// and idle sweeps).
	LockedBefore *time.Time

	// RuntimeVersionBefore, when non-empty, restricts to jobs whose
	// RuntimeVersion sorts strictly before the given version (used by GC).
	RuntimeVersionBefore string
}

// OrderBy names a column the Query result is ordered by.
type OrderBy string

const (
	OrderByPriorityAsc OrderBy = "priority_asc"
)

// Query describes a range/equality read against the job table.
type Query struct {
	Filter  Filter
	OrderBy OrderBy
	Limit   int
}

// Tx is a handle to a single optimistic transaction, scoped to one
// RunInTransaction call. All reads and writes inside RunInTransaction must
// go through the Tx, not the outer Store, so the implementation can detect
// conflicts.
type Tx interface {
	// Get returns the job with the given id, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*Job, error)

	// Upsert inserts or overwrites a job by id.
	Upsert(ctx context.Context, j *Job) error

	// Delete removes a job by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}

// TxFunc is the body of an optimistic transaction. Returning an error aborts
// the transaction; RunInTransaction does not itself retry — that is
// pkg/retry's job.
type TxFunc func(ctx context.Context, tx Tx) error

// BatchFunc is invoked once per batch by ScanBatches. Returning an error
// stops the scan and propagates the error to ScanBatches' caller.
type BatchFunc func(ctx context.Context, batch []*Job) error

// Store is the datastore contract the scheduler core is built against:
// keyed lookup, range/equality queries, streaming batch scans, and
// multi-entity optimistic transactions whose conflicts are reported as
// retryable errors (the retry itself is pkg/retry's job).
type Store interface {
	// Migrate creates or upgrades the underlying schema.
	Migrate(ctx context.Context) error

	// Get returns the job with the given id, or (nil, nil) if absent.
	Get(ctx context.Context, id string) (*Job, error)

	// Find executes q and returns the matching jobs.
	Find(ctx context.Context, q Query) ([]*Job, error)

	// ScanBatches streams every job matching filter through fn in batches of
	// batchSize, without materializing the full result set in memory. Used
	// by UnlockStaleProcessing, CheckIdle, and Stats.
	ScanBatches(ctx context.Context, filter Filter, batchSize int, fn BatchFunc) error

	// RunInTransaction executes fn inside a single optimistic transaction.
	// Implementations must return ErrConflict (see pkg/datastore) for
	// retryable conflicts and any other error for fatal failures.
	RunInTransaction(ctx context.Context, fn TxFunc) error

	// DeleteBatch deletes up to limit jobs matching filter and returns the
	// number deleted.
	DeleteBatch(ctx context.Context, filter Filter, limit int) (int, error)
}
