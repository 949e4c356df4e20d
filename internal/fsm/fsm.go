// Package fsm gates status transitions for a record against the
// dependency graph: blocked status is derived from Blocks edges, never
// read off the persisted field.
package fsm

import (
	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
)

// transitions lists every valid (from, to) edge. A missing entry means the
// move is never allowed regardless of blocking. Every status can move to
// Deferred, so that edge is added to each row below rather than repeated.
var transitions = map[model.Status]map[model.Status]bool{
	model.StatusOpen: {
		model.StatusInProgress: true,
	},
	model.StatusInProgress: {
		model.StatusClosed: true,
		model.StatusOpen:   true,
	},
	model.StatusBlocked: {
		model.StatusOpen: true,
	},
	model.StatusDeferred: {
		model.StatusOpen: true,
	},
	model.StatusClosed: {
		model.StatusOpen: true,
	},
}

func init() {
	for _, row := range transitions {
		row[model.StatusDeferred] = true
	}
}

// gated names the (from, to) pairs where the move additionally requires
// the record to be unblocked.
var gated = map[model.Status]map[model.Status]bool{
	model.StatusOpen:       {model.StatusInProgress: true},
	model.StatusInProgress: {model.StatusClosed: true},
}

// ValidateTransition reports whether record can move to target given the
// current graph. The persisted Blocked status, if present, never gates
// anything by itself; only graph.IsBlocked does.
func ValidateTransition(record model.Record, target model.Status, g *graph.Graph) error {
	allowed := transitions[record.Status]
	if allowed == nil || !allowed[target] {
		return errs.New(errs.InvalidTransition, "%s: cannot move from %s to %s", record.ID, record.Status, target)
	}
	if gated[record.Status][target] && g.IsBlocked(record.ID) {
		return errs.InvalidTransitionErr(record.ID, g.BlockingDeps(record.ID))
	}
	return nil
}
