// Package compact implements age-based archival: closed records older
// than a configured threshold move from the active store to the archive
// file, grounded on the same locked-load/atomic-write path as
// internal/store.
package compact

import (
	"context"

	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
)

const secondsPerDay = 86400

// Plan describes what a compaction would do, independent of whether it is
// actually executed: the shared shape behind both Compact and a
// --dry-run report.
type Plan struct {
	Keep    []model.Record
	Archive []model.Record
}

// BuildPlan partitions active into keep/archive given threshold T (days)
// measured against now (unix seconds): a record archives iff its status is
// Closed and now - updated_at >= T * 86400.
func BuildPlan(active []model.Record, thresholdDays int, now int64) Plan {
	var plan Plan
	cutoff := int64(thresholdDays) * secondsPerDay
	for _, r := range active {
		if r.Status == model.StatusClosed && now-r.UpdatedAt >= cutoff {
			plan.Archive = append(plan.Archive, r)
		} else {
			plan.Keep = append(plan.Keep, r)
		}
	}
	return plan
}

// Compact runs a real compaction: loads the active set under the lock,
// builds a plan, appends the archive set to the archive file, and writes
// the keep set back as the new active snapshot. The index is refreshed by
// Store.SaveAll as a side effect of the active-file rewrite.
func Compact(ctx context.Context, s *store.Store, thresholdDays int, now int64) (Plan, error) {
	var plan Plan
	err := s.SaveAll(ctx, func(active []model.Record) ([]model.Record, error) {
		plan = BuildPlan(active, thresholdDays, now)
		if len(plan.Archive) > 0 {
			archived, err := s.LoadArchived()
			if err != nil {
				return nil, err
			}
			if err := store.WriteFile(s.ArchivePath(), append(archived, plan.Archive...)); err != nil {
				return nil, err
			}
		}
		return plan.Keep, nil
	})
	return plan, err
}

// DryRun reports which records would move without touching disk.
func DryRun(s *store.Store, thresholdDays int, now int64) (Plan, error) {
	active, err := s.LoadAll()
	if err != nil {
		return Plan{}, err
	}
	return BuildPlan(active, thresholdDays, now), nil
}
