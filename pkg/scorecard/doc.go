// Package scorecard is the score-card collaborator: the reindex
// side-effect destination a worker notifies after a successful job
// completion. It is an external HTTP service; this package supplies the
// interface and a small HTTP client implementation.
package scorecard
