package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type conflictErr struct{}

func (conflictErr) Error() string   { return "conflict" }
func (conflictErr) IsConflict() bool { return true }

func TestTx_SucceedsFirstAttempt(t *testing.T) {
	var calls int
	err := Tx(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestTx_RetriesOnConflictThenSucceeds(t *testing.T) {
	cfg := Config{MaxAttempts: 5, InitialBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond, Multiplier: 2, JitterFraction: 0}
	var calls int
	err := Tx(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return conflictErr{}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestTx_NonConflictErrorPropagatesImmediately(t *testing.T) {
	cfg := DefaultConfig()
	var calls int
	sentinel := errors.New("fatal")
	err := Tx(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestTx_ExhaustsAttempts(t *testing.T) {
	cfg := Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Multiplier: 2, JitterFraction: 0}
	var calls int
	err := Tx(context.Background(), cfg, func(ctx context.Context) error {
		calls++
		return conflictErr{}
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestTx_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	err := Tx(ctx, cfg, func(ctx context.Context) error {
		t.Fatal("fn should not be called with an already-cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsConflict(t *testing.T) {
	assert.True(t, IsConflict(conflictErr{}))
	assert.False(t, IsConflict(errors.New("plain")))
	assert.False(t, IsConflict(nil))
}
