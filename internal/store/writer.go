package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mrorigo/pearls/internal/errs"
	"github.com/mrorigo/pearls/internal/model"
)

// WriteFile serializes records to path atomically: write to a sibling temp
// file in the same directory, fsync it, then rename over the destination.
// The rename is the only visible state transition, so a reader never
// observes a partially written file and a crash mid-write leaves the
// previous version of path intact.
func WriteFile(path string, records []model.Record) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return errs.Wrap(errs.Io, err, "creating temp file for %s", path)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath) // no-op once the rename below has succeeded
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			_ = tmp.Close()
			return errs.Wrap(errs.Io, err, "encoding record %s", rec.ID)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "flushing %s", tmpPath)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errs.Wrap(errs.Io, err, "fsyncing %s", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.Io, err, "closing %s", tmpPath)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return errs.Wrap(errs.Io, err, "renaming %s to %s", tmpPath, path)
	}
	return syncDir(dir)
}

// syncDir fsyncs the directory entry so the rename itself is durable, not
// just the file contents. Best-effort: some platforms/filesystems reject
// fsync on a directory handle, which we treat as non-fatal.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil
	}
	defer d.Close()
	_ = d.Sync()
	return nil
}
