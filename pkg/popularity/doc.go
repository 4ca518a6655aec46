// Package popularity provides the popularity oracle the scheduler core
// blends into job priority: a package name maps to a float in [0,1], a
// missing or failing lookup maps to 0, and the call is never allowed to
// return an error — the priority function calls it inline on every write
// path and must not be able to fail a transaction because of it.
package popularity
