package store

import (
	"context"

	"github.com/fsnotify/fsnotify"
	"github.com/mrorigo/pearls/internal/errs"
)

// Watch emits onChange every time the active store file is written,
// blocking until ctx is cancelled. It does not itself fork a background
// process; it is meant to back a foreground command like `pearls ready
// --watch` that exits when the user interrupts it.
func (s *Store) Watch(ctx context.Context, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.Io, err, "starting filesystem watcher")
	}
	defer w.Close()

	if err := w.Add(s.Dir); err != nil {
		return errs.Wrap(errs.Io, err, "watching %s", s.Dir)
	}

	active := s.activePath()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name == active && (ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0) {
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				return errs.Wrap(errs.Io, err, "watching %s", s.Dir)
			}
		}
	}
}
