// Package store implements the Store component: streaming read, atomic
// write, exclusive locking, and an optional offset index, grounded on the
// teacher's internal/jsonl streaming scanner and its sync_export.go
// temp-file-then-rename write path.
package store

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/lockfile"
	"github.com/mrorigo/pearls/internal/model"
	"github.com/mrorigo/pearls/internal/telemetry"
)

// Store owns one active JSONL file and its optional offset index.
type Store struct {
	Dir      string // repo-relative .pearls directory
	UseIndex bool
}

func (s *Store) activePath() string { return filepath.Join(s.Dir, "issues.jsonl") }
func (s *Store) archivePath() string { return filepath.Join(s.Dir, "archive.jsonl") }
func (s *Store) lockPath() string   { return filepath.Join(s.Dir, "issues.jsonl.lock") }
func (s *Store) indexPath() string  { return filepath.Join(s.Dir, "index.bin") }

// ActivePath and ArchivePath expose the underlying file locations for
// collaborators (the compactor, the merge driver) that need to act on them
// directly rather than through a Store method.
func (s *Store) ActivePath() string  { return s.activePath() }
func (s *Store) ArchivePath() string { return s.archivePath() }
func (s *Store) IndexPath() string   { return s.indexPath() }

// New constructs a Store rooted at dir (the .pearls directory).
func New(dir string, useIndex bool) *Store {
	return &Store{Dir: dir, UseIndex: useIndex}
}

// LoadAll streams every active record, in file order. A malformed line
// fails the whole read with a line-indexed error; nothing is silently
// skipped.
func (s *Store) LoadAll() ([]model.Record, error) {
	return ReadFile(s.activePath())
}

// LoadArchived streams every archived record.
func (s *Store) LoadArchived() ([]model.Record, error) {
	return ReadFile(s.archivePath())
}

// LoadByID returns the active record with the given ID, using the offset
// index when enabled and consistent, falling back to a full scan on any
// mismatch or miss. The index is rebuilt as a side effect only when the
// line at the indexed offset does not hold the requested record.
func (s *Store) LoadByID(id string) (model.Record, error) {
	if s.UseIndex {
		if rec, err, handled := s.loadByIDViaIndex(id); handled {
			return rec, err
		}
	}
	return s.loadByIDScan(id)
}

func (s *Store) loadByIDViaIndex(id string) (model.Record, error, bool) {
	idx, ok := LoadIndex(s.indexPath())
	if !ok {
		return model.Record{}, nil, false
	}
	offset, ok := idx[id]
	if !ok {
		return model.Record{}, nil, false
	}

	f, err := os.Open(s.activePath())
	if err != nil {
		return model.Record{}, nil, false
	}
	defer f.Close()

	if _, err := f.Seek(int64(offset), 0); err != nil {
		return model.Record{}, nil, false
	}
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return model.Record{}, nil, false
	}

	var rec model.Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.ID != id {
		// Index entry is stale; rebuild it and fall through to a real scan.
		_ = s.rebuildIndex()
		return model.Record{}, nil, false
	}
	return rec, nil, true
}

func (s *Store) loadByIDScan(id string) (model.Record, error) {
	records, err := s.LoadAll()
	if err != nil {
		return model.Record{}, err
	}
	for _, rec := range records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return model.Record{}, errs.New(errs.NotFound, "no record matches %q", id)
}

// Save upserts one record: acquires the lock, reads the current active
// set, replaces the matching record (or appends if new), writes the new
// snapshot atomically, and updates the index in-place before releasing
// the lock.
func (s *Store) Save(ctx context.Context, rec model.Record) error {
	return s.SaveAll(ctx, func(records []model.Record) ([]model.Record, error) {
		for i, existing := range records {
			if existing.ID == rec.ID {
				records[i] = rec
				return records, nil
			}
		}
		return append(records, rec), nil
	})
}

// Delete removes the record with id from the active set, same write path
// as Save minus one record.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.SaveAll(ctx, func(records []model.Record) ([]model.Record, error) {
		out := records[:0]
		found := false
		for _, r := range records {
			if r.ID == id {
				found = true
				continue
			}
			out = append(out, r)
		}
		if !found {
			return nil, errs.New(errs.NotFound, "no record matches %q", id)
		}
		return out, nil
	})
}

// SaveAll locks the active file, loads it, applies mutate, writes the
// result back atomically, refreshes the index, and unlocks. mutate
// receives the current snapshot and returns the new one; any error it
// returns aborts the write entirely, leaving the file untouched.
func (s *Store) SaveAll(ctx context.Context, mutate func([]model.Record) ([]model.Record, error)) error {
	ctx, span := telemetry.StartSpan(ctx, "store.save_all", "")
	defer span.End()
	slog.DebugContext(ctx, "store: save_all starting", "dir", s.Dir)

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		err = errs.Wrap(errs.Io, err, "creating %s", s.Dir)
		slog.ErrorContext(ctx, "store: save_all failed to create dir", "dir", s.Dir, "error", err)
		return err
	}
	err := lockfile.WithLock(ctx, s.lockPath(), func() error {
		records, err := s.LoadAll()
		if err != nil {
			return err
		}
		updated, err := mutate(records)
		if err != nil {
			return err
		}
		if err := WriteFile(s.activePath(), updated); err != nil {
			return err
		}
		if s.UseIndex {
			return s.rebuildIndexFrom(updated)
		}
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "store: save_all failed", "dir", s.Dir, "error", err)
		return err
	}
	slog.DebugContext(ctx, "store: save_all complete", "dir", s.Dir)
	return nil
}

// rebuildIndex reloads the active file and rebuilds the offset index from
// scratch; used when a stale index entry is detected.
func (s *Store) rebuildIndex() error {
	records, err := s.LoadAll()
	if err != nil {
		return err
	}
	return s.rebuildIndexFrom(records)
}

func (s *Store) rebuildIndexFrom(records []model.Record) error {
	idx, err := BuildIndex(records)
	if err != nil {
		return err
	}
	return SaveIndex(s.indexPath(), idx)
}

// BuildIndex computes byte offsets by re-serializing each record exactly
// as WriteFile does (one json.Encoder.Encode per line), since offsets are
// only meaningful against the file actually on disk. Exported so doctor
// can compare a freshly computed index against the persisted one without
// going through a Store.
func BuildIndex(records []model.Record) (Index, error) {
	idx := make(Index, len(records))
	var offset uint64
	for _, rec := range records {
		idx[rec.ID] = offset
		b, err := json.Marshal(rec)
		if err != nil {
			return nil, errs.Wrap(errs.Io, err, "marshaling %s for index", rec.ID)
		}
		offset += uint64(len(b)) + 1 // +1 for the trailing newline json.Encoder writes
	}
	return idx, nil
}
