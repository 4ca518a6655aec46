package datastore

import (
	"errors"
	"strings"
)

// ConflictError wraps a driver-level error that the optimistic-transaction
// retry harness (pkg/retry) should retry rather than surface.
type ConflictError struct {
	Err error
}

func (e *ConflictError) Error() string {
	return "datastore: conflict: " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsConflict satisfies pkg/retry.Conflicter.
func (e *ConflictError) IsConflict() bool {
	return true
}

// ErrConflict wraps err as a retryable datastore conflict.
func ErrConflict(err error) error {
	return &ConflictError{Err: err}
}

// classifyTxError inspects a transaction-body error and, if it looks like a
// SQLite "database is locked"/"busy" error or a PostgreSQL serialization
// failure (40001) or deadlock (40P01), wraps it as a ConflictError so
// pkg/retry retries it. Anything else — including a plain business-logic
// sentinel the transaction body returned on purpose — passes through
// unchanged.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}

	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "40001"), // serialization_failure
		strings.Contains(msg, "40p01"), // deadlock_detected
		strings.Contains(msg, "could not serialize access"),
		strings.Contains(msg, "deadlock detected"):
		return ErrConflict(err)
	default:
		return err
	}
}
