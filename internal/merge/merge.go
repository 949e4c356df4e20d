// Package merge implements the three-way semantic JSONL merge invoked by
// the version-control system on conflicting commits to the active store.
// The field-level merge rules (scalar "diverging side wins, ties flagged",
// list union against a common ancestor, map deep-merge) are adapted from
// github.com/neongreen's beads-merge implementation (MIT license; see
// ATTRIBUTION below), ported here to Pearls' smaller record schema and to
// flag genuine conflicts instead of always picking one side.
package merge

// ATTRIBUTION: the overall three-way-merge shape (parse three JSONL files,
// partition IDs, field-by-field reconciliation, deterministic re-emission)
// follows github.com/neongreen/mono/tree/main/beads-merge, MIT licensed,
// Copyright (c) 2024 @neongreen.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
	"github.com/mrorigo/pearls/internal/telemetry"
)

// Result is the outcome of a three-way merge.
type Result struct {
	Records   []model.Record
	Conflicts []Conflict
}

// Conflict names one field of one record where both sides diverged from
// the ancestor and from each other at an equal updated_at, so neither side
// could be preferred automatically.
type Conflict struct {
	ID    string
	Field string
}

// Merge3Way parses the ancestor, ours, and theirs JSONL files and produces
// a merged record set plus any conflicts that need human review. The
// output is always valid JSONL even when conflicts are present: a
// conflicted scalar field keeps "ours" as its value, and every conflict is
// additionally recorded in the record's Metadata under the "__conflict"
// key so a reviewer can find it without re-running the merge.
func Merge3Way(ancestorPath, oursPath, theirsPath string) (Result, error) {
	ctx, span := telemetry.StartSpan(context.Background(), "merge.three_way", "")
	defer span.End()
	slog.DebugContext(ctx, "merge: three-way merge starting", "ancestor", ancestorPath, "ours", oursPath, "theirs", theirsPath)

	o, err := loadUnique(ancestorPath)
	if err != nil {
		slog.WarnContext(ctx, "merge: failed reading ancestor", "path", ancestorPath, "error", err)
		return Result{}, err
	}
	a, err := loadUnique(oursPath)
	if err != nil {
		slog.WarnContext(ctx, "merge: failed reading ours", "path", oursPath, "error", err)
		return Result{}, err
	}
	b, err := loadUnique(theirsPath)
	if err != nil {
		slog.WarnContext(ctx, "merge: failed reading theirs", "path", theirsPath, "error", err)
		return Result{}, err
	}
	result := merge3Way(o, a, b)
	if len(result.Conflicts) > 0 {
		slog.WarnContext(ctx, "merge: completed with conflicts", "count", len(result.Conflicts))
	} else {
		slog.DebugContext(ctx, "merge: completed cleanly", "records", len(result.Records))
	}
	return result, nil
}

// loadUnique reads a JSONL file into an ID-keyed map, rejecting duplicate
// IDs within the same file as a hard error.
func loadUnique(path string) (map[string]model.Record, error) {
	records, err := store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Record, len(records))
	for _, r := range records {
		if _, dup := out[r.ID]; dup {
			return nil, errs.New(errs.DuplicateID, "duplicate id %q in %s", r.ID, path)
		}
		out[r.ID] = r
	}
	return out, nil
}

func merge3Way(o, a, b map[string]model.Record) Result {
	ids := make(map[string]bool, len(o)+len(a)+len(b))
	for id := range o {
		ids[id] = true
	}
	for id := range a {
		ids[id] = true
	}
	for id := range b {
		ids[id] = true
	}

	var result Result
	for id := range ids {
		oRec, inO := o[id]
		aRec, inA := a[id]
		bRec, inB := b[id]

		switch {
		case inA && inB:
			merged, conflicts := mergeRecord(oRec, aRec, bRec, inO)
			result.Records = append(result.Records, merged)
			result.Conflicts = append(result.Conflicts, conflicts...)
		case inA && !inB && !inO:
			result.Records = append(result.Records, aRec) // singleton add, A side
		case inB && !inA && !inO:
			result.Records = append(result.Records, bRec) // singleton add, B side
		case inA && !inB && inO:
			result.Records = append(result.Records, aRec) // B deleted, A kept: A's edits survive
		case inB && !inA && inO:
			result.Records = append(result.Records, bRec) // A deleted, B kept: B's edits survive
		// inO && !inA && !inB: deleted on both sides, joint delete, drop silently.
		default:
		}
	}

	sort.Slice(result.Records, func(i, j int) bool { return result.Records[i].ID < result.Records[j].ID })
	sort.Slice(result.Conflicts, func(i, j int) bool {
		if result.Conflicts[i].ID != result.Conflicts[j].ID {
			return result.Conflicts[i].ID < result.Conflicts[j].ID
		}
		return result.Conflicts[i].Field < result.Conflicts[j].Field
	})
	return result
}

// mergeRecord reconciles a record present (possibly absent from the
// ancestor) on both sides, field by field. When ancestor is absent (both
// sides independently created the same ID, a generation collision) every
// field is treated as "both changed from nothing", so ties are flagged.
func mergeRecord(o, a, b model.Record, hasAncestor bool) (model.Record, []Conflict) {
	var conflicts []Conflict
	flag := func(field string) { conflicts = append(conflicts, Conflict{ID: a.ID, Field: field}) }

	if !hasAncestor {
		o = model.Record{}
	}

	result := a
	result.Title, _ = mergeScalar(o.Title, a.Title, b.Title, a.UpdatedAt, b.UpdatedAt, flag, "title")
	result.Description, _ = mergeScalar(o.Description, a.Description, b.Description, a.UpdatedAt, b.UpdatedAt, flag, "description")
	result.Status, _ = mergeScalar(o.Status, a.Status, b.Status, a.UpdatedAt, b.UpdatedAt, flag, "status")
	result.Priority, _ = mergeScalar(o.Priority, a.Priority, b.Priority, a.UpdatedAt, b.UpdatedAt, flag, "priority")
	result.Author, _ = mergeScalar(o.Author, a.Author, b.Author, a.UpdatedAt, b.UpdatedAt, flag, "author")
	result.Labels = mergeStringList(o.Labels, a.Labels, b.Labels)
	result.Deps = mergeDeps(o.Deps, a.Deps, b.Deps)
	result.Metadata = mergeMetadata(o.Metadata, a.Metadata, b.Metadata, a.UpdatedAt, b.UpdatedAt, flag)

	if a.UpdatedAt >= b.UpdatedAt {
		result.UpdatedAt = a.UpdatedAt
	} else {
		result.UpdatedAt = b.UpdatedAt
	}
	if a.CreatedAt < b.CreatedAt {
		result.CreatedAt = a.CreatedAt
	} else {
		result.CreatedAt = b.CreatedAt
	}

	if len(conflicts) > 0 {
		if result.Metadata == nil {
			result.Metadata = make(map[string]interface{})
		}
		fields := make([]string, 0, len(conflicts))
		for _, c := range conflicts {
			fields = append(fields, c.Field)
		}
		result.Metadata["__conflict"] = fields
	}

	return result, conflicts
}

// mergeScalar applies the standard rule: equal values keep; a value that
// diverges on only one side wins outright; a genuine two-sided divergence
// is resolved by updated_at, with a tie calling flag and defaulting to a.
func mergeScalar[T comparable](o, a, b T, aUpdated, bUpdated int64, flag func(string), field string) (T, bool) {
	if a == b {
		return a, false
	}
	if o == a && o != b {
		return b, false
	}
	if o == b && o != a {
		return a, false
	}
	if aUpdated > bUpdated {
		return a, false
	}
	if bUpdated > aUpdated {
		return b, false
	}
	flag(field)
	return a, true
}

// mergeStringList unions additions from both sides against the ancestor
// and drops anything either side removed, preserving the ancestor's order
// first, then A's new entries, then B's new entries.
func mergeStringList(o, a, b []string) []string {
	oSet := toSet(o)
	aSet := toSet(a)
	bSet := toSet(b)

	removed := func(set map[string]bool, id string) bool { return oSet[id] && !set[id] }

	var out []string
	seen := make(map[string]bool)
	for _, id := range o {
		if removed(aSet, id) || removed(bSet, id) {
			continue
		}
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range a {
		if !oSet[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !oSet[id] && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func toSet(ss []string) map[string]bool {
	set := make(map[string]bool, len(ss))
	for _, s := range ss {
		set[s] = true
	}
	return set
}

func depKey(d model.Dependency) string { return string(d.Type) + ":" + d.TargetID }

// mergeDeps applies the same union/removal rule as mergeStringList, keyed
// by (target, type) so the same target under two different edge types is
// tracked independently.
func mergeDeps(o, a, b []model.Dependency) []model.Dependency {
	index := func(deps []model.Dependency) map[string]model.Dependency {
		m := make(map[string]model.Dependency, len(deps))
		for _, d := range deps {
			m[depKey(d)] = d
		}
		return m
	}
	oSet, aSet, bSet := index(o), index(a), index(b)
	removed := func(set map[string]model.Dependency, key string) bool {
		_, inO := oSet[key]
		_, inSet := set[key]
		return inO && !inSet
	}

	var out []model.Dependency
	seen := make(map[string]bool)
	for _, d := range o {
		key := depKey(d)
		if removed(aSet, key) || removed(bSet, key) {
			continue
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, d)
		}
	}
	for _, d := range a {
		key := depKey(d)
		if _, inO := oSet[key]; !inO && !seen[key] {
			seen[key] = true
			out = append(out, d)
		}
	}
	for _, d := range b {
		key := depKey(d)
		if _, inO := oSet[key]; !inO && !seen[key] {
			seen[key] = true
			out = append(out, d)
		}
	}
	return out
}

// mergeMetadata deep-merges map fields by key using the scalar rule,
// flagging conflicting nested keys at equal timestamps individually
// rather than the field as a whole.
func mergeMetadata(o, a, b map[string]interface{}, aUpdated, bUpdated int64, flag func(string)) map[string]interface{} {
	if len(o) == 0 && len(a) == 0 && len(b) == 0 {
		return nil
	}
	keys := make(map[string]bool)
	for k := range o {
		keys[k] = true
	}
	for k := range a {
		keys[k] = true
	}
	for k := range b {
		keys[k] = true
	}

	out := make(map[string]interface{}, len(keys))
	for k := range keys {
		ov, av, bv := o[k], a[k], b[k]
		merged, _ := mergeAnyScalar(ov, av, bv, aUpdated, bUpdated, func() { flag("metadata." + k) })
		if merged != nil {
			out[k] = merged
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mergeAnyScalar(o, a, b interface{}, aUpdated, bUpdated int64, flag func()) (interface{}, bool) {
	if deepEqual(a, b) {
		return a, false
	}
	if deepEqual(o, a) && !deepEqual(o, b) {
		return b, false
	}
	if deepEqual(o, b) && !deepEqual(o, a) {
		return a, false
	}
	if aUpdated > bUpdated {
		return a, false
	}
	if bUpdated > aUpdated {
		return b, false
	}
	flag()
	return a, true
}

// deepEqual compares two metadata values structurally by round-tripping
// them through JSON, which is sufficient for the scalar/slice/map shapes
// metadata is expected to hold and avoids a reflect.DeepEqual mismatch
// between e.g. float64(1) and int(1) coming from different decode paths.
func deepEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ab) == string(bb)
}
