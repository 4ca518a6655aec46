package scheduler

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// CheckIdle sweeps every idle job whose cooldown has elapsed, asking
// predicate whether the underlying package has moved on; promote to
// available if so, otherwise extend the cooldown. A predicate error is
// logged and that job is skipped — it will be reconsidered on the next
// pass.
func (s *Scheduler) CheckIdle(ctx context.Context, predicate IdlePredicate) error {
	now := time.Now()
	filter := job.Filter{
		RuntimeVersion: s.RuntimeVersion,
		State:          job.StateIdle,
		LockedBefore:   &now,
	}

	return s.Store.ScanBatches(ctx, filter, 100, func(ctx context.Context, batch []*job.Job) error {
		for _, idle := range batch {
			shouldProcess, err := predicate(ctx, idle.PackageName, idle.PackageVersion, idle.PackageVersionUpdated)
			if err != nil {
				s.Log.Error().Err(err).Str("job_id", idle.ID).Msg("checkIdle: predicate failed")
				continue
			}
			if err := s.checkIdleOne(ctx, idle, shouldProcess); err != nil {
				s.Log.Error().Err(err).Str("job_id", idle.ID).Msg("checkIdle: transaction failed")
			}
		}
		return nil
	})
}

func (s *Scheduler) checkIdleOne(ctx context.Context, idle *job.Job, shouldProcess bool) error {
	return s.retryTx(ctx, func(ctx context.Context, tx job.Tx) error {
		current, err := tx.Get(ctx, idle.ID)
		if err != nil {
			return err
		}
		if current == nil || current.State != job.StateIdle || !sameInstant(current.LockedUntil, idle.LockedUntil) {
			return nil
		}

		if shouldProcess {
			current.State = job.StateAvailable
			current.ProcessingKey = ""
			current.LockedUntil = nil
			// Priority is not recomputed here: promotion
			// preserves whatever priority was last computed for the job.
			return tx.Upsert(ctx, current)
		}

		until := time.Now().Add(s.Lease.ShortExtend)
		current.LockedUntil = &until
		return tx.Upsert(ctx, current)
	})
}
