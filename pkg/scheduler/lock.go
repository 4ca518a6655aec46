package scheduler

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/pubjobs/scheduler/pkg/job"
)

// LockAvailable reads up to LockAvailableLimit available jobs for
// service, picks one biased toward the head of the priority-ordered
// list, and leases it. Returns (nil, nil) when there is nothing to do or
// the chosen candidate lost a race.
func (s *Scheduler) LockAvailable(ctx context.Context, service job.Service) (*job.Job, error) {
	candidates, err := s.Store.Find(ctx, job.Query{
		Filter: job.Filter{
			RuntimeVersion: s.RuntimeVersion,
			Service:        service,
			State:          job.StateAvailable,
		},
		OrderBy: job.OrderByPriorityAsc,
		Limit:   LockAvailableLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates = filterApplicable(candidates, s.RuntimeVersion, job.StateAvailable)
	if len(candidates) == 0 {
		return nil, nil
	}

	chosen := candidates[pickIndex(len(candidates))]

	var locked *job.Job
	err = s.retryTx(ctx, func(ctx context.Context, tx job.Tx) error {
		current, err := tx.Get(ctx, chosen.ID)
		if err != nil {
			return err
		}
		if current == nil || current.State != job.StateAvailable || current.RuntimeVersion != s.RuntimeVersion {
			return nil
		}

		now := time.Now()
		until := now.Add(s.Lease.DefaultLock)
		current.State = job.StateProcessing
		current.ProcessingKey = uuid.NewString()
		current.LockedUntil = &until

		if err := tx.Upsert(ctx, current); err != nil {
			return err
		}
		locked = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return locked, nil
}

// pickIndex implements a two-draw, head-biased pick among n candidates:
// draw r1 uniformly in [0,n); if r1 < 20 use it, else draw a second r2
// and use that instead. This concentrates a small amount of extra mass
// on the first 20 entries without a hard cutoff.
func pickIndex(n int) int {
	r1 := rand.IntN(n)
	if r1 < 20 {
		return r1
	}
	return rand.IntN(n)
}

// filterApplicable drops candidates whose state or runtime version no
// longer matches what the query asked for — a defensive post-filter
// against read-then-stale-by-the-time-we-look races on backends without
// snapshot isolation.
func filterApplicable(candidates []*job.Job, runtimeVersion string, state job.State) []*job.Job {
	out := candidates[:0]
	for _, c := range candidates {
		if c.State == state && c.RuntimeVersion == runtimeVersion {
			out = append(out, c)
		}
	}
	return out
}
