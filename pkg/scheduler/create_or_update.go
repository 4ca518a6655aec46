package scheduler

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// createOrUpdate is the core write path. It is always
// invoked from inside Trigger, which has already resolved the package and
// version; createOrUpdate itself owns the insert/no-op/overwrite decision
// and the optimistic transaction around it.
func (s *Scheduler) createOrUpdate(
	ctx context.Context,
	service job.Service,
	packageName, packageVersion string,
	isLatestStable bool,
	packageVersionUpdated time.Time,
	shouldProcess bool,
	fixedPriority *int,
) error {
	id := job.ID(s.RuntimeVersion, service, packageName, packageVersion)

	return s.retryTx(ctx, func(ctx context.Context, tx job.Tx) error {
		existing, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}

		priority := s.computePriority(ctx, packageName, fixedPriority)

		if existing == nil {
			j := &job.Job{
				ID:                    id,
				RuntimeVersion:        s.RuntimeVersion,
				Service:               service,
				PackageName:           packageName,
				PackageVersion:        packageVersion,
				IsLatestStable:        isLatestStable,
				PackageVersionUpdated: packageVersionUpdated,
				LastStatus:            job.StatusNone,
				ErrorCount:            0,
				Priority:              priority,
			}
			s.applyFreshState(j, shouldProcess)
			return tx.Upsert(ctx, j)
		}

		// An equal PackageVersionUpdated counts as "not changed" (literal
		// !Before, not !After-or-equal).
		hasNotChanged := existing.IsLatestStable == isLatestStable &&
			!existing.PackageVersionUpdated.Before(packageVersionUpdated) &&
			(fixedPriority == nil || existing.Priority <= *fixedPriority)

		if hasNotChanged && !shouldProcess {
			return nil
		}
		if hasNotChanged && shouldProcess && existing.State == job.StateAvailable && existing.LockedUntil == nil {
			return nil
		}

		existing.IsLatestStable = isLatestStable
		existing.PackageVersionUpdated = packageVersionUpdated
		existing.ProcessingKey = ""
		existing.Priority = priority
		s.applyFreshState(existing, shouldProcess)
		return tx.Upsert(ctx, existing)
	})
}

// applyFreshState sets State and LockedUntil per the "absent"/"overwrite"
// rule shared by both branches of createOrUpdate: shouldProcess means the
// work is stale and belongs in available immediately; otherwise it is
// freshly current and cools down in idle for s.Lease.ShortExtend.
func (s *Scheduler) applyFreshState(j *job.Job, shouldProcess bool) {
	if shouldProcess {
		j.State = job.StateAvailable
		j.LockedUntil = nil
		return
	}
	j.State = job.StateIdle
	until := time.Now().Add(s.Lease.ShortExtend)
	j.LockedUntil = &until
}
