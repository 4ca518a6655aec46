package scheduler

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// UnlockStaleProcessing sweeps jobs whose lease expired while still
// processing and returns them to idle with an incremented error count
// and an aborted status. Per-job fencing means a job whose lease was
// legitimately extended or completed concurrently is silently skipped,
// not treated as an error.
func (s *Scheduler) UnlockStaleProcessing(ctx context.Context) error {
	now := time.Now()
	filter := job.Filter{
		RuntimeVersion: s.RuntimeVersion,
		State:          job.StateProcessing,
		LockedBefore:   &now,
	}

	return s.Store.ScanBatches(ctx, filter, 100, func(ctx context.Context, batch []*job.Job) error {
		for _, stale := range batch {
			if err := s.unlockOne(ctx, stale); err != nil {
				s.Log.Error().Err(err).Str("job_id", stale.ID).Msg("unlockStaleProcessing: failed")
			}
		}
		return nil
	})
}

func (s *Scheduler) unlockOne(ctx context.Context, stale *job.Job) error {
	return s.retryTx(ctx, func(ctx context.Context, tx job.Tx) error {
		current, err := tx.Get(ctx, stale.ID)
		if err != nil {
			return err
		}
		if current == nil || current.State != job.StateProcessing || !sameInstant(current.LockedUntil, stale.LockedUntil) {
			return nil
		}

		current.ErrorCount++
		current.State = job.StateIdle
		current.LastStatus = job.StatusAborted
		current.ProcessingKey = ""
		until := s.extendLock(time.Now(), current.ErrorCount)
		current.LockedUntil = &until
		current.Priority = s.computePriority(ctx, current.PackageName, nil)

		return tx.Upsert(ctx, current)
	})
}

// sameInstant fences a re-read against a concurrent lease change: both
// sides non-nil and equal, or both nil.
func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
