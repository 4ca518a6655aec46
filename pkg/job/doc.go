// Package job defines the persistent Job entity, its lifecycle enums, the
// priority function, and the Storage contract the scheduler core is built
// against.
//
// Most callers should import github.com/pubjobs/scheduler/pkg/scheduler,
// which consumes this package; job is the shared vocabulary between the
// scheduler core and its datastore implementations.
package job
