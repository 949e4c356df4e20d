package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, updatedAt int64) model.Record {
	return model.Record{
		ID: id, Title: "t", Status: model.StatusOpen, Priority: 1,
		CreatedAt: 1, UpdatedAt: updatedAt, Author: "a",
	}
}

func TestSaveThenLoadAllRoundTrips(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))
	require.NoError(t, s.Save(ctx, rec("prl-bbbbbb", 1)))

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSaveUpsertsExistingID(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))
	updated := rec("prl-aaaaaa", 2)
	updated.Title = "changed"
	require.NoError(t, s.Save(ctx, updated))

	records, err := s.LoadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "changed", records[0].Title)
}

func TestDeleteRemovesRecord(t *testing.T) {
	s := store.New(t.TempDir(), false)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))
	require.NoError(t, s.Delete(ctx, "prl-aaaaaa"))

	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDeleteUnknownIDFails(t *testing.T) {
	s := store.New(t.TempDir(), false)
	err := s.Delete(context.Background(), "prl-zzzzzz")
	assert.Error(t, err)
}

func TestLoadByIDWithIndexEnabled(t *testing.T) {
	s := store.New(t.TempDir(), true)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))
	require.NoError(t, s.Save(ctx, rec("prl-bbbbbb", 1)))

	got, err := s.LoadByID("prl-bbbbbb")
	require.NoError(t, err)
	assert.Equal(t, "prl-bbbbbb", got.ID)
}

func TestLoadByIDFallsBackOnStaleIndex(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, true)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))

	// Corrupt the index so any lookup must fall back to a scan.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.bin"), []byte("garbage"), 0644))

	got, err := s.LoadByID("prl-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, "prl-aaaaaa", got.ID)
}

func TestLoadByIDNotFound(t *testing.T) {
	s := store.New(t.TempDir(), false)
	_, err := s.LoadByID("prl-ffffff")
	assert.Error(t, err)
}

func TestLoadAllRejectsMalformedLine(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "issues.jsonl"), []byte("{not json}\n"), 0644))

	s := store.New(dir, false)
	_, err := s.LoadAll()
	assert.Error(t, err)
}

func TestLoadAllOnMissingFileReturnsEmpty(t *testing.T) {
	s := store.New(t.TempDir(), false)
	records, err := s.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSaveAllWritesAreAtomic(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, false)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, rec("prl-aaaaaa", 1)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp.")
	}
}

func TestWatchFiresOnChangeAndStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, false)
	ctx, cancel := context.WithCancel(context.Background())

	fired := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, func() {
			select {
			case fired <- struct{}{}:
			default:
			}
		})
	}()

	// Give the watcher time to register before the write it should catch.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, s.Save(context.Background(), rec("prl-aaaaaa", 1)))

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not fire onChange for a store write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
}
