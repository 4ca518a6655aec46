package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputePriority_ZeroPopularityIsBasePriority(t *testing.T) {
	assert.Equal(t, BasePriority, ComputePriority(0))
}

func TestComputePriority_FullPopularityIsMostUrgent(t *testing.T) {
	assert.Equal(t, 0, ComputePriority(1))
}

func TestComputePriority_ClampsOutOfRangeInput(t *testing.T) {
	assert.Equal(t, ComputePriority(0), ComputePriority(-5))
	assert.Equal(t, ComputePriority(1), ComputePriority(5))
}

func TestComputePriority_Monotone(t *testing.T) {
	low := ComputePriority(0.1)
	high := ComputePriority(0.9)
	assert.Greater(t, low, high, "higher popularity must yield a lower (more urgent) priority")
}

func TestFixPriority_NilLeavesComputedUnchanged(t *testing.T) {
	assert.Equal(t, 500, FixPriority(500, nil))
}

func TestFixPriority_LowerWins(t *testing.T) {
	fixed := 0
	assert.Equal(t, 0, FixPriority(500, &fixed))

	fixed = 900
	assert.Equal(t, 500, FixPriority(500, &fixed))
}
