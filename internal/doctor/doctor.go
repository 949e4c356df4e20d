// Package doctor runs read-only consistency checks over a store: duplicate
// IDs, per-record validation failures, dangling dependency references,
// Blocks cycles, and (when the offset index is enabled) index drift against
// the active file. It reports rather than repairs by default.
package doctor

import (
	"fmt"
	"sort"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
)

// Severity classifies a finding so callers can decide whether to fail a
// CI check on it.
type Severity string

const (
	SeverityError   Severity = "error"   // data is actually wrong
	SeverityWarning Severity = "warning" // data is suspicious but usable
)

// Finding is one diagnostic result.
type Finding struct {
	Severity Severity
	Code     string // stable machine-readable category, e.g. "duplicate_id"
	Message  string
	IDs      []string
}

// Report is the full result of a Run.
type Report struct {
	Findings []Finding
}

// OK reports whether the report contains no error-severity findings.
func (r Report) OK() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Run loads the active and archived sets and runs every check, read-only.
func Run(s *store.Store) (Report, error) {
	active, err := s.LoadAll()
	if err != nil {
		return Report{}, err
	}
	archived, err := s.LoadArchived()
	if err != nil {
		return Report{}, err
	}

	var r Report
	r.Findings = append(r.Findings, checkDuplicates(active)...)
	r.Findings = append(r.Findings, checkRecordValidity(active)...)

	g := graph.FromRecords(active, archived)
	r.Findings = append(r.Findings, checkOrphans(g)...)
	r.Findings = append(r.Findings, checkCycles(g, active)...)
	r.Findings = append(r.Findings, checkIndex(s, active)...)

	return r, nil
}

func checkDuplicates(active []model.Record) []Finding {
	seen := make(map[string]bool, len(active))
	var findings []Finding
	for _, r := range active {
		if seen[r.ID] {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     "duplicate_id",
				Message:  fmt.Sprintf("id %s appears more than once in the active store", r.ID),
				IDs:      []string{r.ID},
			})
			continue
		}
		seen[r.ID] = true
	}
	return findings
}

func checkRecordValidity(active []model.Record) []Finding {
	var findings []Finding
	for _, r := range active {
		if err := r.Validate(); err != nil {
			findings = append(findings, Finding{
				Severity: SeverityError,
				Code:     "invalid_record",
				Message:  fmt.Sprintf("%s: %v", r.ID, err),
				IDs:      []string{r.ID},
			})
		}
	}
	return findings
}

func checkOrphans(g *graph.Graph) []Finding {
	orphans := g.Orphans()
	if len(orphans) == 0 {
		return nil
	}
	return []Finding{{
		Severity: SeverityWarning,
		Code:     "dangling_dependency",
		Message:  fmt.Sprintf("%d dependency target(s) do not exist in active or archived records", len(orphans)),
		IDs:      orphans,
	}}
}

func checkCycles(g *graph.Graph, active []model.Record) []Finding {
	if _, err := g.TopologicalSort(active); err != nil {
		if cerr, ok := err.(*errs.Error); ok && cerr.Kind == errs.CycleDetected {
			return []Finding{{
				Severity: SeverityError,
				Code:     "blocks_cycle",
				Message:  fmt.Sprintf("cycle in Blocks edges: %v", cerr.Cycle),
				IDs:      cerr.Cycle,
			}}
		}
	}
	return nil
}

// checkIndex rebuilds the index in memory and compares it against the
// on-disk one, flagging drift without touching the disk copy; the caller
// should run the equivalent of a reindex to repair it.
func checkIndex(s *store.Store, active []model.Record) []Finding {
	if !s.UseIndex {
		return nil
	}
	onDisk, ok := store.LoadIndex(s.IndexPath())
	if !ok {
		return []Finding{{
			Severity: SeverityWarning,
			Code:     "index_missing",
			Message:  "use_index is enabled but no index.bin was found",
		}}
	}
	want, err := store.BuildIndex(active)
	if err != nil {
		return []Finding{{Severity: SeverityWarning, Code: "index_unreadable", Message: err.Error()}}
	}
	var drifted []string
	for id, offset := range want {
		if onDisk[id] != offset {
			drifted = append(drifted, id)
		}
	}
	if len(onDisk) != len(want) {
		for id := range onDisk {
			if _, ok := want[id]; !ok {
				drifted = append(drifted, id)
			}
		}
	}
	if len(drifted) == 0 {
		return nil
	}
	sort.Strings(drifted)
	return []Finding{{
		Severity: SeverityWarning,
		Code:     "index_stale",
		Message:  fmt.Sprintf("index.bin is stale for %d record(s)", len(drifted)),
		IDs:      drifted,
	}}
}
