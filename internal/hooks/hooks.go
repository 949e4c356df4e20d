// Package hooks implements the pre-commit and post-merge checks that run
// as thin Git hook scripts delegating back into the CLI, grounded on the
// teacher's cmd/bd/hook.go dispatch shape (hookPreCommit/hookPostMerge)
// adapted to Pearls' validate + auto-close semantics.
package hooks

import (
	"context"
	"regexp"
	"strings"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/fsm"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
)

// fixesPattern matches "Fixes(prl-abc123)" case-insensitively, tolerating
// extra whitespace inside the parens.
var fixesPattern = regexp.MustCompile(`(?i)\bFixes\s*\(\s*(prl-[0-9a-f]{6,8})\s*\)`)

// PreCommitResult reports what the pre-commit hook found.
type PreCommitResult struct {
	ClosedIDs []string // records auto-closed by a Fixes(...) reference
}

// PreCommit stream-validates the active store, fails on any malformed line,
// invariant violation, duplicate ID, or cyclic Blocks edge, then, if
// autoClose is enabled, scans commitMessage for Fixes(prl-XXXXXX)
// references and closes each matched record that the FSM allows to close.
func PreCommit(ctx context.Context, s *store.Store, commitMessage string, autoClose bool) (PreCommitResult, error) {
	records, err := s.LoadAll()
	if err != nil {
		return PreCommitResult{}, err
	}
	archived, err := s.LoadArchived()
	if err != nil {
		return PreCommitResult{}, err
	}
	g := graph.FromRecords(records, archived)

	if err := checkInvariants(records, g); err != nil {
		return PreCommitResult{}, err
	}

	if !autoClose {
		return PreCommitResult{}, nil
	}

	ids := fixedIDs(commitMessage)
	if len(ids) == 0 {
		return PreCommitResult{}, nil
	}

	var closed []string
	err = s.SaveAll(ctx, func(current []model.Record) ([]model.Record, error) {
		for _, id := range ids {
			for i, r := range current {
				if r.ID != id {
					continue
				}
				if fsm.ValidateTransition(r, model.StatusClosed, g) != nil {
					continue // not eligible; leave untouched rather than failing the commit
				}
				current[i].Status = model.StatusClosed
				closed = append(closed, id)
			}
		}
		return current, nil
	})
	if err != nil {
		return PreCommitResult{}, err
	}
	return PreCommitResult{ClosedIDs: closed}, nil
}

// checkInvariants re-validates every record, rejects duplicate IDs, and
// rejects a cyclic Blocks subgraph; a malformed line is already a hard
// error surfaced by s.LoadAll itself.
func checkInvariants(records []model.Record, g *graph.Graph) error {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return errs.New(errs.DuplicateID, "duplicate id %q in active store", r.ID)
		}
		seen[r.ID] = true
		if err := r.Validate(); err != nil {
			return err
		}
	}
	if _, err := g.TopologicalSort(records); err != nil {
		return err
	}
	return nil
}

func fixedIDs(commitMessage string) []string {
	matches := fixesPattern.FindAllStringSubmatch(commitMessage, -1)
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		id := strings.ToLower(m[1])
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// PostMergeReport summarizes graph health after a merge, for a non-failing
// informational report.
type PostMergeReport struct {
	Cycles  [][]string
	Orphans []string
}

// PostMerge rebuilds the graph from the merged active file and reports
// cycles and orphan references without failing the merge; by the time
// this hook runs, the merge has already completed.
func PostMerge(s *store.Store) (PostMergeReport, error) {
	records, err := s.LoadAll()
	if err != nil {
		return PostMergeReport{}, err
	}
	archived, err := s.LoadArchived()
	if err != nil {
		return PostMergeReport{}, err
	}
	g := graph.FromRecords(records, archived)

	report := PostMergeReport{Orphans: g.Orphans()}
	if _, err := g.TopologicalSort(records); err != nil {
		if cerr, ok := err.(*errs.Error); ok {
			report.Cycles = append(report.Cycles, cerr.Cycle)
		}
	}
	return report, nil
}
