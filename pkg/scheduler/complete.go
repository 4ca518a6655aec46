package scheduler

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// Complete records the outcome of a leased job. j is the caller's
// (possibly stale) view of the job it was leased; the update is accepted
// if the stored processing key still matches j's, or unconditionally on
// success — a deliberately conservative choice that preserves completed
// work even past a stolen lease. A fencing mismatch on a non-success
// status is a legitimate concurrent transition, logged and dropped
// rather than returned as an error.
func (s *Scheduler) Complete(ctx context.Context, j *job.Job, status job.LastStatus) error {
	return s.retryTx(ctx, func(ctx context.Context, tx job.Tx) error {
		current, err := tx.Get(ctx, j.ID)
		if err != nil {
			return err
		}
		if current == nil {
			s.Log.Warn().Str("job_id", j.ID).Msg("complete: job no longer exists, dropping")
			return nil
		}
		if current.ProcessingKey != j.ProcessingKey && status != job.StatusSuccess {
			s.Log.Info().Str("job_id", j.ID).Msg("complete: processing key mismatch, dropping")
			return nil
		}

		if status.IsError() {
			current.ErrorCount = current.ErrorCount + 1
		} else {
			current.ErrorCount = 0
		}
		current.State = job.StateIdle
		current.LastStatus = status
		current.ProcessingKey = ""
		until := s.extendLock(time.Now(), current.ErrorCount)
		current.LockedUntil = &until
		current.Priority = s.computePriority(ctx, current.PackageName, nil)

		return tx.Upsert(ctx, current)
	})
}
