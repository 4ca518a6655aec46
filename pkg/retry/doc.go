// Package retry wraps a transactional function with bounded exponential
// backoff against datastore conflict errors. It is the transaction-retry
// harness the scheduler core's state-mutating operations are built on.
package retry
