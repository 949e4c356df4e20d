// Package graph builds the dependency DAG over a record set and answers
// blocking, cycle, topological-order, and ready-queue queries against it.
package graph

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/telemetry"
)

// Graph is a directed, typed edge set over record IDs, plus the status of
// every known node (active and archived) so orphan/closed checks do not
// need a second lookup table.
type Graph struct {
	statuses map[string]model.Status
	edges    map[string][]edge // owner -> outgoing edges
}

type edge struct {
	to   string
	kind model.DependencyType
}

// FromRecords builds a Graph by materializing each record's deps as
// owner -> target edges. archived supplies statuses for IDs referenced by
// active records but no longer present in the active set, so an orphan
// check can tell "archived" from "truly missing".
func FromRecords(active, archived []model.Record) *Graph {
	g := &Graph{
		statuses: make(map[string]model.Status, len(active)+len(archived)),
		edges:    make(map[string][]edge, len(active)),
	}
	for _, r := range active {
		g.statuses[r.ID] = r.Status
	}
	for _, r := range archived {
		if _, known := g.statuses[r.ID]; !known {
			g.statuses[r.ID] = r.Status
		}
	}
	for _, r := range active {
		for _, d := range r.Deps {
			g.edges[r.ID] = append(g.edges[r.ID], edge{to: d.TargetID, kind: d.Type})
		}
	}
	return g
}

// statusOf returns the known status of id, treating any ID absent from
// both active and archived sets (an orphan target) as Closed: it cannot
// block what does not exist.
func (g *Graph) statusOf(id string) model.Status {
	if s, ok := g.statuses[id]; ok {
		return s
	}
	return model.StatusClosed
}

// HasNode reports whether id is a known record (active or archived).
func (g *Graph) HasNode(id string) bool {
	_, ok := g.statuses[id]
	return ok
}

// Orphans returns every edge target that is not a known node.
func (g *Graph) Orphans() []string {
	seen := make(map[string]bool)
	var out []string
	for _, owned := range g.edges {
		for _, e := range owned {
			if !g.HasNode(e.to) && !seen[e.to] {
				seen[e.to] = true
				out = append(out, e.to)
			}
		}
	}
	sort.Strings(out)
	return out
}

// AddDependency verifies both endpoints exist and, for a Blocks edge,
// rejects the addition if it would close a cycle in the Blocks subgraph.
// Non-Blocks edges never cause rejection.
func (g *Graph) AddDependency(from, to string, kind model.DependencyType) error {
	_, span := telemetry.StartSpan(context.Background(), "graph.add_dependency", from)
	defer span.End()
	slog.Debug("graph: adding dependency", "from", from, "to", to, "type", kind)

	if !g.HasNode(from) {
		err := errs.New(errs.NotFound, "no record matches %q", from)
		slog.Warn("graph: add dependency failed", "from", from, "to", to, "error", err)
		return err
	}
	if !g.HasNode(to) {
		err := errs.New(errs.NotFound, "no record matches %q", to)
		slog.Warn("graph: add dependency failed", "from", from, "to", to, "error", err)
		return err
	}
	if kind == model.DepBlocks {
		if path := g.wouldCycle(from, to); path != nil {
			err := errs.CycleErr(path)
			slog.Warn("graph: add dependency rejected, would cycle", "from", from, "to", to, "path", path)
			return err
		}
	}
	g.edges[from] = append(g.edges[from], edge{to: to, kind: kind})
	slog.Debug("graph: dependency added", "from", from, "to", to, "type", kind)
	return nil
}

// wouldCycle reports the cycle path that adding from->to would create in
// the Blocks subgraph, or nil if it would not create one. It works by
// checking whether `to` can already reach `from` via existing Blocks edges;
// if so, from->to closes the loop.
func (g *Graph) wouldCycle(from, to string) []string {
	path, found := g.blocksPathTo(to, from, map[string]bool{})
	if !found {
		return nil
	}
	return append([]string{from}, path...)
}

func (g *Graph) blocksPathTo(start, target string, visited map[string]bool) ([]string, bool) {
	if start == target {
		return []string{start}, true
	}
	if visited[start] {
		return nil, false
	}
	visited[start] = true
	for _, e := range g.edges[start] {
		if e.kind != model.DepBlocks {
			continue
		}
		if path, ok := g.blocksPathTo(e.to, target, visited); ok {
			return append([]string{start}, path...), true
		}
	}
	return nil, false
}

// RemoveDependency removes every edge between from and to, regardless of
// type.
func (g *Graph) RemoveDependency(from, to string) {
	owned := g.edges[from]
	out := owned[:0]
	for _, e := range owned {
		if e.to != to {
			out = append(out, e)
		}
	}
	g.edges[from] = out
}

// RemoveDependencyType removes only the edge from from to to tagged with
// kind, leaving other edge types between the same pair untouched.
func (g *Graph) RemoveDependencyType(from, to string, kind model.DependencyType) {
	owned := g.edges[from]
	out := owned[:0]
	for _, e := range owned {
		if !(e.to == to && e.kind == kind) {
			out = append(out, e)
		}
	}
	g.edges[from] = out
}

// IsBlocked reports whether id has any outgoing Blocks edge to a
// non-Closed target. An orphan target counts as Closed.
func (g *Graph) IsBlocked(id string) bool {
	return len(g.BlockingDeps(id)) > 0
}

// BlockingDeps lists the targets of id's Blocks edges that are not Closed.
func (g *Graph) BlockingDeps(id string) []string {
	var out []string
	for _, e := range g.edges[id] {
		if e.kind == model.DepBlocks && g.statusOf(e.to) != model.StatusClosed {
			out = append(out, e.to)
		}
	}
	return out
}

// TopologicalSort returns every known ID in an order respecting all Blocks
// edges, ties broken by the ReadyQueue ordering (priority ascending, then
// updated_at descending) for stable output. Returns a CycleDetected error
// naming the path if the Blocks subgraph is cyclic.
func (g *Graph) TopologicalSort(records []model.Record) ([]string, error) {
	byID := make(map[string]model.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	inDegree := make(map[string]int, len(g.statuses))
	for id := range g.statuses {
		inDegree[id] = 0
	}
	for owner, owned := range g.edges {
		for _, e := range owned {
			if e.kind == model.DepBlocks && g.HasNode(e.to) {
				// owner depends on (is blocked by) e.to, so e.to must precede owner.
				// An orphan target is never emitted, so it cannot hold owner back.
				inDegree[owner]++
			}
		}
	}

	// Build reverse adjacency (blocker -> dependents) for Kahn's algorithm.
	dependents := make(map[string][]string, len(g.statuses))
	for owner, owned := range g.edges {
		for _, e := range owned {
			if e.kind == model.DepBlocks {
				dependents[e.to] = append(dependents[e.to], owner)
			}
		}
	}

	var ready []string
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortByTiebreak(ready, byID)

	var order []string
	for len(ready) > 0 {
		sortByTiebreak(ready, byID)
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(g.statuses) {
		return nil, errs.CycleErr(g.findAnyBlocksCycle())
	}
	return order, nil
}

// findAnyBlocksCycle walks the Blocks subgraph hunting for a cycle to
// report; used only when TopologicalSort has already determined one
// exists.
func (g *Graph) findAnyBlocksCycle() []string {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var dfs func(id string) []string
	dfs = func(id string) []string {
		visiting[id] = true
		stack = append(stack, id)
		for _, e := range g.edges[id] {
			if e.kind != model.DepBlocks {
				continue
			}
			if visiting[e.to] {
				// Found the back-edge; slice the stack from e.to's first occurrence.
				for i, s := range stack {
					if s == e.to {
						return append(append([]string{}, stack[i:]...), e.to)
					}
				}
				return []string{e.to, id}
			}
			if !visited[e.to] {
				if cyc := dfs(e.to); cyc != nil {
					return cyc
				}
			}
		}
		visiting[id] = false
		visited[id] = true
		stack = stack[:len(stack)-1]
		return nil
	}

	ids := make([]string, 0, len(g.statuses))
	for id := range g.statuses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if !visited[id] {
			if cyc := dfs(id); cyc != nil {
				return cyc
			}
		}
	}
	return nil
}

// ReadyQueue filters records to status=Open and not blocked, sorted
// ascending by priority then descending by updated_at.
func (g *Graph) ReadyQueue(records []model.Record) []model.Record {
	var out []model.Record
	for _, r := range records {
		if r.Status == model.StatusOpen && !g.IsBlocked(r.ID) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].UpdatedAt > out[j].UpdatedAt
	})
	return out
}

func sortByTiebreak(ids []string, byID map[string]model.Record) {
	sort.Slice(ids, func(i, j int) bool {
		ri, iok := byID[ids[i]]
		rj, jok := byID[ids[j]]
		if !iok || !jok {
			return ids[i] < ids[j]
		}
		if ri.Priority != rj.Priority {
			return ri.Priority < rj.Priority
		}
		if ri.UpdatedAt != rj.UpdatedAt {
			return ri.UpdatedAt > rj.UpdatedAt
		}
		return ids[i] < ids[j]
	})
}
