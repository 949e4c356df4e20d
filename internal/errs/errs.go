// Package errs defines the typed error categories shared by every layer of
// the core: the store, the graph, the FSM, and the merge engine all return
// errors built through this package so that callers (the CLI, the hooks,
// the merge driver) can branch on category rather than parsing messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a coarse error category. It is never used for control flow across
// process boundaries (exit codes carry that); it is used by callers within
// the process to decide how to react (retry, report, suggest).
type Kind string

const (
	Io                Kind = "io"
	Parse             Kind = "parse"
	InvalidRecord     Kind = "invalid_record"
	NotFound          Kind = "not_found"
	Ambiguous         Kind = "ambiguous"
	CycleDetected     Kind = "cycle_detected"
	InvalidTransition Kind = "invalid_transition"
	LockTimeout       Kind = "lock_timeout"
	DuplicateID       Kind = "duplicate_id"
	Vcs               Kind = "vcs"
	MergeConflict     Kind = "merge_conflict"
)

// Error is the concrete error type returned by core operations. Context is
// deliberately loose (IDs, line numbers, suggestions) because each Kind
// populates a different subset of it.
type Error struct {
	Kind    Kind
	Message string

	IDs         []string // issue IDs implicated in the error
	LineNo      int      // 1-based line number, for Parse errors
	Suggestions []string // near-miss IDs, for NotFound
	Candidates  []string // ambiguous matches, for Ambiguous
	Cycle       []string // the cycle path, for CycleDetected

	Wrapped error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is lets errors.Is(err, errs.New(errs.NotFound, "")) work by comparing
// Kind against a sentinel built with New(kind, ""). For a bare Kind, use
// the package-level Is(err, kind).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Wrapped: err}
}

// NotFoundErr builds a NotFound error carrying near-miss suggestions.
func NotFoundErr(id string, suggestions []string) *Error {
	msg := fmt.Sprintf("no record matches %q", id)
	return &Error{Kind: NotFound, Message: msg, IDs: []string{id}, Suggestions: suggestions}
}

// AmbiguousErr builds an Ambiguous error listing every candidate.
func AmbiguousErr(id string, candidates []string) *Error {
	msg := fmt.Sprintf("%q matches %d records", id, len(candidates))
	return &Error{Kind: Ambiguous, Message: msg, IDs: []string{id}, Candidates: candidates}
}

// ParseErr builds a Parse error anchored to a line number.
func ParseErr(lineNo int, err error) *Error {
	return &Error{Kind: Parse, Message: fmt.Sprintf("line %d: %v", lineNo, err), LineNo: lineNo, Wrapped: err}
}

// CycleErr builds a CycleDetected error carrying the offending path.
func CycleErr(path []string) *Error {
	return &Error{Kind: CycleDetected, Message: fmt.Sprintf("cycle: %v", path), Cycle: path}
}

// InvalidTransitionErr builds an InvalidTransition error naming the blockers.
func InvalidTransitionErr(id string, blockers []string) *Error {
	msg := fmt.Sprintf("%s cannot transition: blocked by %v", id, blockers)
	return &Error{Kind: InvalidTransition, Message: msg, IDs: append([]string{id}, blockers...)}
}

// MergeConflictErr builds a MergeConflict error naming the records whose
// fields diverged in a three-way merge and were flagged rather than
// silently resolved.
func MergeConflictErr(ids []string) *Error {
	return &Error{Kind: MergeConflict, Message: fmt.Sprintf("%d record(s) flagged with field conflicts", len(ids)), IDs: ids}
}

// Is reports whether err (or something it wraps) has the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
