// Package datastore implements job.Store on top of GORM, against either an
// embeddable SQLite file (the default) or PostgreSQL (selected by DSN
// scheme), translating the lock-wait and serialization errors either driver
// can raise into the retryable ErrConflict the scheduler core's retry
// harness understands.
package datastore
