package stats

import (
	"fmt"
	"time"
)

// ETA estimates time-to-drain from two consecutive snapshots of the same
// service. prev and cur must be ordered in time; cur.Taken must be after
// prev.Taken.
func ETA(prev, cur *AllStats) string {
	if prev == nil || cur == nil {
		return "no prior snapshot"
	}

	doneCount := prev.All.AvailableCount - cur.All.AvailableCount
	if doneCount < 0 {
		return "increasing"
	}
	if doneCount == 0 {
		return "no change"
	}

	elapsed := cur.Taken.Sub(prev.Taken)
	if elapsed <= 0 {
		return "no change"
	}

	jobsPerMinute := 60 * float64(doneCount) / elapsed.Seconds()
	timePerJob := elapsed / time.Duration(doneCount)
	remaining := timePerJob * time.Duration(cur.All.AvailableCount)

	return fmt.Sprintf("%.2f jobs/min, ~%s remaining", jobsPerMinute, remaining.Round(time.Second))
}
