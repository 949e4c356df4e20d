package compact_test

import (
	"context"
	"testing"

	"github.com/mrorigo/pearls/internal/compact"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, status model.Status, updatedAt int64) model.Record {
	return model.Record{ID: id, Title: id, Status: status, Priority: 1, CreatedAt: 1, UpdatedAt: updatedAt, Author: "a"}
}

func TestBuildPlanArchivesOldClosedOnly(t *testing.T) {
	now := int64(1_000_000)
	records := []model.Record{
		rec("prl-aaaaaa", model.StatusClosed, now-30*86400),  // old enough
		rec("prl-bbbbbb", model.StatusClosed, now-1*86400),   // too recent
		rec("prl-cccccc", model.StatusOpen, now-100*86400),   // not closed
	}

	plan := compact.BuildPlan(records, 7, now)
	require.Len(t, plan.Archive, 1)
	assert.Equal(t, "prl-aaaaaa", plan.Archive[0].ID)
	assert.Len(t, plan.Keep, 2)
}

func TestDryRunDoesNotTouchDisk(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()
	now := int64(1_000_000)
	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", model.StatusClosed, now-30*86400)))

	plan, err := compact.DryRun(s, 7, now)
	require.NoError(t, err)
	require.Len(t, plan.Archive, 1)

	// Active set must be untouched.
	active, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, active, 1)

	archived, err := s.LoadArchived()
	require.NoError(t, err)
	assert.Empty(t, archived)
}

func TestCompactMovesRecordsToArchive(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()
	now := int64(1_000_000)
	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", model.StatusClosed, now-30*86400)))
	require.NoError(t, s.Save(ctx, rec("prl-bbbbbb", model.StatusOpen, now-30*86400)))

	plan, err := compact.Compact(ctx, s, 7, now)
	require.NoError(t, err)
	require.Len(t, plan.Archive, 1)

	active, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "prl-bbbbbb", active[0].ID)

	archived, err := s.LoadArchived()
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "prl-aaaaaa", archived[0].ID)
}

func TestCompactIsIdempotentWhenNothingQualifies(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()
	now := int64(1_000_000)
	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", model.StatusOpen, now)))

	plan, err := compact.Compact(ctx, s, 7, now)
	require.NoError(t, err)
	assert.Empty(t, plan.Archive)

	active, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
