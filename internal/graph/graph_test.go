package graph_test

import (
	"testing"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/graph"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, status model.Status, priority int, updatedAt int64, deps ...model.Dependency) model.Record {
	return model.Record{
		ID: id, Title: id, Status: status, Priority: priority,
		CreatedAt: 1, UpdatedAt: updatedAt, Author: "a", Deps: deps,
	}
}

func blocks(to string) model.Dependency {
	return model.Dependency{TargetID: to, Type: model.DepBlocks}
}

func TestIsBlockedByOpenDependency(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	assert.True(t, g.IsBlocked("prl-aaaaaa"))
	assert.Equal(t, []string{"prl-bbbbbb"}, g.BlockingDeps("prl-aaaaaa"))
}

func TestNotBlockedWhenBlockerClosed(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusClosed, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	assert.False(t, g.IsBlocked("prl-aaaaaa"))
}

func TestOrphanBlocksTargetTreatedAsClosed(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-ffffff"))
	g := graph.FromRecords([]model.Record{a}, nil)

	assert.False(t, g.IsBlocked("prl-aaaaaa"))
	assert.Equal(t, []string{"prl-ffffff"}, g.Orphans())
}

func TestArchivedBlockerStatusIsHonored(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	archived := rec("prl-bbbbbb", model.StatusClosed, 1, 1)
	g := graph.FromRecords([]model.Record{a}, []model.Record{archived})

	assert.False(t, g.IsBlocked("prl-aaaaaa"))
	assert.Empty(t, g.Orphans())
}

func TestAddDependencyRejectsCycle(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	err := g.AddDependency("prl-bbbbbb", "prl-aaaaaa", model.DepBlocks)
	require.Error(t, err)
	assert.Equal(t, errs.CycleDetected, errs.KindOf(err))
}

func TestAddDependencyNonBlocksNeverCycles(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	err := g.AddDependency("prl-bbbbbb", "prl-aaaaaa", model.DepRelated)
	assert.NoError(t, err)
}

func TestAddDependencyUnknownEndpoint(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a}, nil)

	err := g.AddDependency("prl-aaaaaa", "prl-zzzzzz", model.DepBlocks)
	assert.Error(t, err)

	err = g.AddDependency("prl-zzzzzz", "prl-aaaaaa", model.DepBlocks)
	assert.Error(t, err)
}

func TestRemoveDependencyDropsAllEdgeTypes(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1,
		model.Dependency{TargetID: "prl-bbbbbb", Type: model.DepBlocks},
		model.Dependency{TargetID: "prl-bbbbbb", Type: model.DepRelated},
	)
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	g.RemoveDependency("prl-aaaaaa", "prl-bbbbbb")
	assert.False(t, g.IsBlocked("prl-aaaaaa"))
}

func TestRemoveDependencyTypeKeepsOtherTypes(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1,
		model.Dependency{TargetID: "prl-bbbbbb", Type: model.DepBlocks},
		model.Dependency{TargetID: "prl-bbbbbb", Type: model.DepRelated},
	)
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	g := graph.FromRecords([]model.Record{a, b}, nil)

	g.RemoveDependencyType("prl-aaaaaa", "prl-bbbbbb", model.DepBlocks)
	assert.False(t, g.IsBlocked("prl-aaaaaa"))
}

func TestTopologicalSortRespectsBlocksEdges(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1)
	records := []model.Record{a, b}
	g := graph.FromRecords(records, nil)

	order, err := g.TopologicalSort(records)
	require.NoError(t, err)
	indexOf := func(id string) int {
		for i, o := range order {
			if o == id {
				return i
			}
		}
		return -1
	}
	assert.Less(t, indexOf("prl-bbbbbb"), indexOf("prl-aaaaaa"))
}

func TestTopologicalSortReportsCycle(t *testing.T) {
	a := rec("prl-aaaaaa", model.StatusOpen, 1, 1, blocks("prl-bbbbbb"))
	b := rec("prl-bbbbbb", model.StatusOpen, 1, 1, blocks("prl-aaaaaa"))
	records := []model.Record{a, b}
	g := graph.FromRecords(records, nil)

	_, err := g.TopologicalSort(records)
	require.Error(t, err)
	assert.Equal(t, errs.CycleDetected, errs.KindOf(err))
}

func TestReadyQueueExcludesBlockedDeferredClosedInProgress(t *testing.T) {
	open := rec("prl-aaaaaa", model.StatusOpen, 1, 1)
	blocked := rec("prl-bbbbbb", model.StatusOpen, 1, 1, blocks("prl-aaaaaa"))
	deferred := rec("prl-cccccc", model.StatusDeferred, 0, 1)
	closed := rec("prl-dddddd", model.StatusClosed, 0, 1)
	inProgress := rec("prl-eeeeee", model.StatusInProgress, 0, 1)

	records := []model.Record{open, blocked, deferred, closed, inProgress}
	g := graph.FromRecords(records, nil)

	queue := g.ReadyQueue(records)
	require.Len(t, queue, 1)
	assert.Equal(t, "prl-aaaaaa", queue[0].ID)
}

func TestReadyQueueOrdersByPriorityThenUpdatedAtDesc(t *testing.T) {
	low := rec("prl-aaaaaa", model.StatusOpen, 2, 100)
	high := rec("prl-bbbbbb", model.StatusOpen, 0, 50)
	tie1 := rec("prl-cccccc", model.StatusOpen, 1, 200)
	tie2 := rec("prl-dddddd", model.StatusOpen, 1, 300)

	records := []model.Record{low, high, tie1, tie2}
	g := graph.FromRecords(records, nil)

	queue := g.ReadyQueue(records)
	ids := make([]string, len(queue))
	for i, r := range queue {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"prl-bbbbbb", "prl-dddddd", "prl-cccccc", "prl-aaaaaa"}, ids)
}
