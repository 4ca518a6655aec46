package job

import "math"

// BasePriority is the priority assigned to a package with zero popularity.
// Lower priority values are more urgent.
const BasePriority = 1000

// PriorityAlpha is the weight popularity carries in the priority formula.
const PriorityAlpha = 1000.0

// ComputePriority returns round(BasePriority - alpha*popularity), clamped so
// a maximally popular package (popularity=1) never goes negative.
func ComputePriority(popularity float64) int {
	if popularity < 0 {
		popularity = 0
	}
	if popularity > 1 {
		popularity = 1
	}
	p := int(math.Round(BasePriority - PriorityAlpha*popularity))
	if p < 0 {
		p = 0
	}
	return p
}

// FixPriority overrides a freshly computed priority with a caller-supplied
// value. Lower wins: it returns the smaller of computed and *fixed. It does
// not consult any priority previously stored on the job.
func FixPriority(computed int, fixed *int) int {
	if fixed == nil {
		return computed
	}
	if *fixed < computed {
		return *fixed
	}
	return computed
}
