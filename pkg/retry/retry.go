package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// Conflicter is implemented by datastore errors that indicate a retryable
// optimistic-transaction conflict, as opposed to a fatal error.
type Conflicter interface {
	IsConflict() bool
}

// IsConflict reports whether err (or anything it wraps) is a retryable
// datastore conflict.
func IsConflict(err error) bool {
	var c Conflicter
	if errors.As(err, &c) {
		return c.IsConflict()
	}
	return false
}

// Config holds the backoff parameters for Tx.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first).
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration
	// Multiplier grows the backoff after each attempt.
	Multiplier float64
	// JitterFraction randomizes the backoff by up to this fraction in
	// either direction.
	JitterFraction float64
}

// DefaultConfig returns the scheduler core's standard retry policy: a
// handful of attempts with backoff capped around 2 seconds.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    6,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// Tx runs fn with bounded exponential backoff whenever fn's error is a
// datastore conflict (per IsConflict). Any other error propagates
// immediately without retry. Context cancellation is respected both
// between attempts and as an immediate abort.
func Tx(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !IsConflict(lastErr) {
			return lastErr
		}
		if attempt >= cfg.MaxAttempts {
			break
		}

		sleep := jittered(backoff, cfg.JitterFraction)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return lastErr
}

func jittered(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return d
	}
	delta := float64(d) * fraction * (rand.Float64()*2 - 1)
	sleep := time.Duration(float64(d) + delta)
	if sleep < 0 {
		sleep = d
	}
	return sleep
}
