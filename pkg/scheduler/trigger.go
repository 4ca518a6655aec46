package scheduler

import (
	"context"
	"time"

	"github.com/pubjobs/scheduler/pkg/job"
)

// Trigger is the sole entry point external callers (an upstream
// package-change webhook, an admin re-index request) use to create or
// refresh a Job. version and updated are both optional: an empty version
// resolves to the package's latest; a nil updated is treated as "always
// stale" (shouldProcess).
func (s *Scheduler) Trigger(ctx context.Context, service job.Service, packageName, version string, updated *time.Time, highPriority bool) error {
	log := s.Log.With().Str("service", string(service)).Str("package", packageName).Str("version", version).Logger()

	pkg, err := s.PkgMeta.GetPackage(ctx, packageName)
	if err != nil {
		return err
	}
	if pkg == nil || pkg.IsNotVisible {
		log.Info().Msg("trigger: package absent or not visible, skipping")
		return nil
	}

	if version == "" {
		version = pkg.LatestVersion
	}

	pv, err := s.PkgMeta.GetPackageVersion(ctx, packageName, version)
	if err != nil {
		return err
	}
	if pv == nil {
		log.Info().Str("version", version).Msg("trigger: package version absent, skipping")
		return nil
	}

	isLatestStable := pkg.LatestVersion == version
	shouldProcess := highPriority || updated == nil || updated.After(pv.Created)

	var fixedPriority *int
	if highPriority {
		zero := 0
		fixedPriority = &zero
	}

	return s.createOrUpdate(ctx, service, packageName, version, isLatestStable, pv.Created, shouldProcess, fixedPriority)
}
