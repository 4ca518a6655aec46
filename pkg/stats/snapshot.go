// Package stats implements the rolling statistics aggregator: a
// per-service snapshot over the job table bucketed into
// All/Latest/Last90, a short in-process ring of recent snapshots, and an
// ETA computed from two consecutive snapshots.
package stats

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// last90Window is the lookback Compute uses for the "recently updated"
// bucket and its failing-package tracking.
const last90Window = 90 * 24 * time.Hour

// Bucket counts jobs by lifecycle state and by last-attempt status.
type Bucket struct {
	AvailableCount  int
	ProcessingCount int
	IdleCount       int
	StatusCounts    map[job.LastStatus]int
}

func newBucket() Bucket {
	return Bucket{StatusCounts: make(map[job.LastStatus]int)}
}

func (b *Bucket) add(j *job.Job) {
	switch j.State {
	case job.StateAvailable:
		b.AvailableCount++
	case job.StateProcessing:
		b.ProcessingCount++
	case job.StateIdle:
		b.IdleCount++
	}
	b.StatusCounts[j.LastStatus]++
}

// AllStats is one rolling snapshot for a single service at the current
// runtime version.
type AllStats struct {
	Service        job.Service
	RuntimeVersion string
	Taken          time.Time

	All           Bucket
	Latest        Bucket
	Last90        Bucket
	Last90Failing []string
}

// Compute scans every job for service at runtimeVersion and buckets it into
// All, Latest (IsLatestStable only), and Last90 (PackageVersionUpdated
// within the last 90 days, plus package names currently failing).
func Compute(ctx context.Context, store job.Store, runtimeVersion string, service job.Service) (*AllStats, error) {
	now := time.Now()
	s := &AllStats{
		Service:        service,
		RuntimeVersion: runtimeVersion,
		Taken:          now,
		All:            newBucket(),
		Latest:         newBucket(),
		Last90:         newBucket(),
	}

	failing := make(map[string]struct{})
	cutoff := now.Add(-last90Window)

	filter := job.Filter{RuntimeVersion: runtimeVersion, Service: service}
	err := store.ScanBatches(ctx, filter, 500, func(ctx context.Context, batch []*job.Job) error {
		for _, j := range batch {
			s.All.add(j)
			if j.IsLatestStable {
				s.Latest.add(j)
			}
			if j.PackageVersionUpdated.After(cutoff) {
				s.Last90.add(j)
				if j.LastStatus == job.StatusFailed {
					failing[j.PackageName] = struct{}{}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for name := range failing {
		s.Last90Failing = append(s.Last90Failing, name)
	}
	return s, nil
}
