package merge_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mrorigo/pearls/internal/merge"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONL(t *testing.T, records ...model.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.jsonl")
	var out []byte
	for _, r := range records {
		b, err := jsonMarshal(r)
		require.NoError(t, err)
		out = append(out, b...)
		out = append(out, '\n')
	}
	require.NoError(t, os.WriteFile(path, out, 0644))
	return path
}

func jsonMarshal(r model.Record) ([]byte, error) {
	return r.MarshalJSON()
}

func base(id string, updatedAt int64) model.Record {
	return model.Record{
		ID: id, Title: "original", Status: model.StatusOpen, Priority: 2,
		CreatedAt: 1, UpdatedAt: updatedAt, Author: "alice",
	}
}

func TestSingletonAddsSurvive(t *testing.T) {
	o := writeJSONL(t)
	a := writeJSONL(t, base("prl-aaaaaa", 1))
	b := writeJSONL(t, base("prl-bbbbbb", 1))

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	assert.Len(t, result.Records, 2)
	assert.Empty(t, result.Conflicts)
}

func TestJointDeleteDrops(t *testing.T) {
	o := writeJSONL(t, base("prl-aaaaaa", 1))
	a := writeJSONL(t)
	b := writeJSONL(t)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestOnlyOneSideDivergesTakesThatSide(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	o := writeJSONL(t, orig)

	changed := orig
	changed.Title = "changed by ours"
	changed.UpdatedAt = 2
	a := writeJSONL(t, changed)
	b := writeJSONL(t, orig)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "changed by ours", result.Records[0].Title)
	assert.Empty(t, result.Conflicts)
}

func TestDivergentScalarsPreferLaterUpdatedAt(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	o := writeJSONL(t, orig)

	ours := orig
	ours.Title = "ours"
	ours.UpdatedAt = 5
	theirs := orig
	theirs.Title = "theirs"
	theirs.UpdatedAt = 10

	a := writeJSONL(t, ours)
	b := writeJSONL(t, theirs)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "theirs", result.Records[0].Title)
	assert.Empty(t, result.Conflicts)
}

func TestTiedUpdatedAtFlagsConflict(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	o := writeJSONL(t, orig)

	ours := orig
	ours.Title = "ours"
	ours.UpdatedAt = 5
	theirs := orig
	theirs.Title = "theirs"
	theirs.UpdatedAt = 5

	a := writeJSONL(t, ours)
	b := writeJSONL(t, theirs)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "title", result.Conflicts[0].Field)
}

func TestLabelUnionKeepsBothSidesAdditions(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	orig.Labels = []string{"core"}
	o := writeJSONL(t, orig)

	ours := orig
	ours.Labels = []string{"core", "urgent"}
	theirs := orig
	theirs.Labels = []string{"core", "docs"}

	a := writeJSONL(t, ours)
	b := writeJSONL(t, theirs)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.ElementsMatch(t, []string{"core", "urgent", "docs"}, result.Records[0].Labels)
}

func TestLabelRemovalOnOneSideWins(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	orig.Labels = []string{"core", "stale"}
	o := writeJSONL(t, orig)

	ours := orig
	ours.Labels = []string{"core"} // dropped "stale"
	theirs := orig                 // unchanged

	a := writeJSONL(t, ours)
	b := writeJSONL(t, theirs)

	result, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	assert.Equal(t, []string{"core"}, result.Records[0].Labels)
}

func TestDependencyUnionIsIdempotentAndCommutative(t *testing.T) {
	orig := base("prl-aaaaaa", 1)
	o := writeJSONL(t, orig)

	ours := orig
	ours.Deps = []model.Dependency{{TargetID: "prl-bbbbbb", Type: model.DepBlocks}}
	theirs := orig
	theirs.Deps = []model.Dependency{{TargetID: "prl-cccccc", Type: model.DepRelated}}

	a := writeJSONL(t, ours)
	b := writeJSONL(t, theirs)

	forward, err := merge.Merge3Way(o, a, b)
	require.NoError(t, err)
	backward, err := merge.Merge3Way(o, b, a)
	require.NoError(t, err)

	assert.ElementsMatch(t, forward.Records[0].Deps, backward.Records[0].Deps)
	assert.Len(t, forward.Records[0].Deps, 2)

	same, err := merge.Merge3Way(o, a, a)
	require.NoError(t, err)
	assert.Equal(t, ours.Deps, same.Records[0].Deps)
}

func TestDuplicateIDWithinOneSideIsHardError(t *testing.T) {
	o := writeJSONL(t)
	dup := filepath.Join(t.TempDir(), "dup.jsonl")
	rec := base("prl-aaaaaa", 1)
	line, err := rec.MarshalJSON()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dup, append(append(line, '\n'), append(line, '\n')...), 0644))
	b := writeJSONL(t)

	_, err = merge.Merge3Way(o, dup, b)
	assert.Error(t, err)
}
