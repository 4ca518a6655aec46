// Package pkgmeta is the package-metadata collaborator Trigger reads from:
// the latest-version pointer and visibility flag for a package, and the
// creation timestamp of a specific package version. The package registry
// that actually owns this data lives outside this module; this package
// supplies the interface and a couple of concrete implementations so
// Trigger has something to call.
package pkgmeta
