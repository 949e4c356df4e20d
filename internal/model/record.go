// Package model defines the Pearls issue record: its fields, its
// validation rules, and a serialization contract that round-trips unknown
// JSON fields verbatim.
package model

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"

	"github.com/mrorigo/pearls/internal/errs"
)

// Status is the FSM's state enum. Blocked is both a derived condition and a
// storable surface value; see internal/fsm for the gating rules.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusDeferred   Status = "deferred"
	StatusClosed     Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusBlocked, StatusDeferred, StatusClosed:
		return true
	}
	return false
}

// DependencyType tags a dependency edge.
type DependencyType string

const (
	DepBlocks         DependencyType = "blocks"
	DepParentChild    DependencyType = "parent-child"
	DepRelated        DependencyType = "related"
	DepDiscoveredFrom DependencyType = "discovered-from"
)

func (t DependencyType) Valid() bool {
	switch t {
	case DepBlocks, DepParentChild, DepRelated, DepDiscoveredFrom:
		return true
	}
	return false
}

// Dependency is one (target, type) edge owned by a Record.
type Dependency struct {
	TargetID string         `json:"target_id"`
	Type     DependencyType `json:"dep_type"`
}

const maxDescriptionBytes = 64 * 1024

// idPattern is the Identity grammar: prl- followed by 6 to 8 lowercase hex digits.
var idPattern = regexp.MustCompile(`^prl-[0-9a-f]{6,8}$`)

// ValidID reports whether id matches the ID grammar, anchored.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Record is the issue record. Fields are tagged to match the JSONL wire
// format exactly; Extra carries any field the core does not recognize so
// that it survives a read/write cycle unchanged.
type Record struct {
	ID          string                 `json:"id"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	Status      Status                 `json:"status"`
	Priority    int                    `json:"priority"`
	CreatedAt   int64                  `json:"created_at"`
	UpdatedAt   int64                  `json:"updated_at"`
	Author      string                 `json:"author"`
	Labels      []string               `json:"labels,omitempty"`
	Deps        []Dependency           `json:"deps,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	// Extra preserves any JSON field not named above, keyed by field name.
	Extra map[string]json.RawMessage `json:"-"`
}

// knownFields lists the JSON keys this struct owns directly, so
// UnmarshalJSON knows which leftover keys belong in Extra.
var knownFields = map[string]bool{
	"id": true, "title": true, "description": true, "status": true,
	"priority": true, "created_at": true, "updated_at": true, "author": true,
	"labels": true, "deps": true, "metadata": true,
}

// recordAlias avoids infinite recursion into Record's own (Un)MarshalJSON.
type recordAlias Record

func (r *Record) UnmarshalJSON(data []byte) error {
	var alias recordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*r = Record(alias)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.Extra = make(map[string]json.RawMessage)
	for k, v := range raw {
		if !knownFields[k] {
			r.Extra[k] = v
		}
	}
	return nil
}

func (r Record) MarshalJSON() ([]byte, error) {
	alias := recordAlias(r)
	base, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		merged[k] = v
	}

	// Stable key order for diff-friendliness: known fields and extras
	// together, all sorted lexically.
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	buf = append(buf, '{')
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, _ := json.Marshal(k)
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, merged[k]...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Validate checks the rules local to a single record in isolation.
// Cross-record invariants live in internal/graph, internal/hooks and
// internal/doctor; internal/store does not check them.
func (r *Record) Validate() error {
	if !ValidID(r.ID) {
		return errs.New(errs.InvalidRecord, "invalid id %q: must match prl-[0-9a-f]{6,8}", r.ID)
	}
	if r.Title == "" {
		return errs.New(errs.InvalidRecord, "%s: title must not be empty", r.ID)
	}
	if r.Priority < 0 || r.Priority > 4 {
		return errs.New(errs.InvalidRecord, "%s: priority %d out of range [0,4]", r.ID, r.Priority)
	}
	if r.CreatedAt <= 0 || r.UpdatedAt <= 0 {
		return errs.New(errs.InvalidRecord, "%s: timestamps must be positive", r.ID)
	}
	if r.UpdatedAt < r.CreatedAt {
		return errs.New(errs.InvalidRecord, "%s: updated_at %d precedes created_at %d", r.ID, r.UpdatedAt, r.CreatedAt)
	}
	if !r.Status.Valid() {
		return errs.New(errs.InvalidRecord, "%s: invalid status %q", r.ID, r.Status)
	}
	if len(r.Description) > maxDescriptionBytes {
		return errs.New(errs.InvalidRecord, "%s: description exceeds %d bytes", r.ID, maxDescriptionBytes)
	}
	for _, dep := range r.Deps {
		if !dep.Type.Valid() {
			return errs.New(errs.InvalidRecord, "%s: invalid dep_type %q for target %s", r.ID, dep.Type, dep.TargetID)
		}
	}
	if dupLabel := firstDuplicateLabel(r.Labels); dupLabel != "" {
		return errs.New(errs.InvalidRecord, "%s: duplicate label %q", r.ID, dupLabel)
	}
	return nil
}

func firstDuplicateLabel(labels []string) string {
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return l
		}
		seen[l] = true
	}
	return ""
}

// HasLabel is a case-insensitive membership check; storage preserves case,
// filtering does not.
func (r *Record) HasLabel(label string) bool {
	for _, l := range r.Labels {
		if equalFold(l, label) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// AddLabel appends label unless an equal-case duplicate is already present.
func (r *Record) AddLabel(label string) {
	for _, l := range r.Labels {
		if l == label {
			return
		}
	}
	r.Labels = append(r.Labels, label)
}

// RemoveLabel drops label (exact case match) if present.
func (r *Record) RemoveLabel(label string) {
	out := r.Labels[:0]
	for _, l := range r.Labels {
		if l != label {
			out = append(out, l)
		}
	}
	r.Labels = out
}

func (d Dependency) String() string {
	return fmt.Sprintf("%s:%s", d.Type, d.TargetID)
}
