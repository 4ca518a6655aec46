package scheduler

import (
	"context"

	"github.com/pubjobs/scheduler/pkg/job"
)

// DeleteOldEntries deletes every job whose RuntimeVersion sorts strictly
// before gcBeforeRuntimeVersion, in batches of DeleteBatchSize commits,
// and returns the total number removed. Comparison is the store's own
// ordering on RuntimeVersion
// (lexicographic for the reference GORM adapter); callers that need
// semver-aware comparison should normalize RuntimeVersion strings to sort
// correctly (e.g. zero-padded date-based versions).
func (s *Scheduler) DeleteOldEntries(ctx context.Context, gcBeforeRuntimeVersion string) (int, error) {
	filter := job.Filter{RuntimeVersionBefore: gcBeforeRuntimeVersion}

	total := 0
	for {
		n, err := s.Store.DeleteBatch(ctx, filter, DeleteBatchSize)
		if err != nil {
			return total, err
		}
		total += n
		if n < DeleteBatchSize {
			return total, nil
		}
	}
}
