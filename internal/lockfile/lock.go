// Package lockfile provides cross-process exclusive locking for the active
// JSONL store: platform-specific non-blocking flock calls plus a bounded
// exponential-backoff retry loop built on cenkalti/backoff/v4.
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/mrorigo/pearls/internal/errs"
)

// ErrLockBusy is returned by the platform-specific non-blocking flock
// primitive when another process currently holds the lock.
var ErrLockBusy = errors.New("lock busy: held by another process")

// Lock represents a held exclusive lock on a single file. The caller must
// call Release exactly once, on every exit path (success, error, panic via
// defer).
type Lock struct {
	f *os.File
}

// Release unlocks and closes the underlying file handle. Safe to call at
// most once; callers should defer it immediately after a successful
// Acquire/WithLock to guarantee release on panics.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := flockUnlock(l.f)
	closeErr := l.f.Close()
	l.f = nil
	if err != nil {
		return err
	}
	return closeErr
}

// Default retry shape: geometric backoff starting ~25ms, doubling, capped
// at ~1s interval, total budget ~5s.
const (
	initialInterval = 25 * time.Millisecond
	maxInterval     = 1 * time.Second
	maxElapsedTime  = 5 * time.Second
)

// Acquire attempts to take the exclusive lock on path, creating the lock
// file if needed, retrying with exponential backoff until ctx is done or
// the total budget is exhausted. Returns a LockTimeout error on exhaustion.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	// #nosec G304 -- path is the caller-controlled active store path
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errs.Wrap(errs.Io, err, "opening lock file %s", path)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval
	bo.Multiplier = 2
	bo.MaxInterval = maxInterval
	bo.MaxElapsedTime = maxElapsedTime
	boCtx := backoff.WithContext(bo, ctx)

	operation := func() error {
		err := flockExclusiveNonBlocking(f)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrLockBusy) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, boCtx); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLockBusy) || errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.New(errs.LockTimeout, "could not acquire lock on %s within %s", path, maxElapsedTime)
		}
		return nil, errs.Wrap(errs.Io, err, "acquiring lock on %s", path)
	}

	// Stamp the file with a fresh holder token so a stuck lock can be told
	// apart from a stale one left by a crashed process during diagnosis;
	// this never participates in the locking decision itself, which is
	// flock's job alone.
	_ = stampHolder(f)

	return &Lock{f: f}, nil
}

func stampHolder(f *os.File) error {
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f, "%s pid=%d\n", uuid.NewString(), os.Getpid())
	return err
}

// WithLock acquires the exclusive lock on path, runs fn, and releases the
// lock on every exit path including a panic inside fn.
func WithLock(ctx context.Context, path string, fn func() error) (err error) {
	lock, err := Acquire(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil && err == nil {
			err = fmt.Errorf("releasing lock: %w", relErr)
		}
	}()
	return fn()
}
