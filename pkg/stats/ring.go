package stats

import (
	"sync"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// ringWindow bounds how far back a per-service Ring keeps snapshots
// (the last 60-90 minutes).
const ringWindow = 90 * time.Minute

// Ring is the per-service in-process history of recent snapshots. It is
// the scheduler's only in-process shared mutable state; it must be safe
// for concurrent Add/Latest/Previous calls from multiple maintenance-loop
// goroutines within one process.
type Ring struct {
	mu        sync.Mutex
	snapshots []*AllStats
}

// NewRing returns an empty Ring.
func NewRing() *Ring {
	return &Ring{}
}

// Add appends snap and drops anything older than ringWindow relative to
// snap's own Taken time.
func (r *Ring) Add(snap *AllStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots = append(r.snapshots, snap)
	cutoff := snap.Taken.Add(-ringWindow)
	i := 0
	for ; i < len(r.snapshots); i++ {
		if r.snapshots[i].Taken.After(cutoff) {
			break
		}
	}
	r.snapshots = r.snapshots[i:]
}

// Latest returns the most recently added snapshot, or nil if empty.
func (r *Ring) Latest() *AllStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

// Previous returns the snapshot immediately before the latest one, or nil
// if there is no such snapshot yet.
func (r *Ring) Previous() *AllStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) < 2 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-2]
}

// Registry is a mutex-protected set of per-service Rings, letting a
// maintenance loop keep one Ring per job.Service without a data race.
type Registry struct {
	mu    sync.Mutex
	rings map[job.Service]*Ring
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{rings: make(map[job.Service]*Ring)}
}

// For returns the Ring for service, creating it on first use.
func (reg *Registry) For(service job.Service) *Ring {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rings[service]
	if !ok {
		r = NewRing()
		reg.rings[service] = r
	}
	return r
}
