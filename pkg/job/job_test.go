package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestID_IsDeterministicAndURIStructured(t *testing.T) {
	id := ID("2024.1.0", ServiceAnalyzer, "retry", "1.0.0")
	assert.Equal(t, "2024.1.0/analyzer/retry/1.0.0", id)

	again := ID("2024.1.0", ServiceAnalyzer, "retry", "1.0.0")
	assert.Equal(t, id, again)
}

func TestID_DiffersByAnyComponent(t *testing.T) {
	base := ID("2024.1.0", ServiceAnalyzer, "retry", "1.0.0")

	assert.NotEqual(t, base, ID("2024.2.0", ServiceAnalyzer, "retry", "1.0.0"))
	assert.NotEqual(t, base, ID("2024.1.0", ServiceDartdoc, "retry", "1.0.0"))
	assert.NotEqual(t, base, ID("2024.1.0", ServiceAnalyzer, "other", "1.0.0"))
	assert.NotEqual(t, base, ID("2024.1.0", ServiceAnalyzer, "retry", "2.0.0"))
}

func TestLastStatus_IsError(t *testing.T) {
	assert.False(t, StatusNone.IsError())
	assert.False(t, StatusSuccess.IsError())
	assert.True(t, StatusFailed.IsError())
	assert.True(t, StatusAborted.IsError())
}

func TestJob_TableName(t *testing.T) {
	assert.Equal(t, "jobs", Job{}.TableName())
}
