package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireReleaseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.lock")

	lock, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
}

func TestAcquireBlocksConcurrentHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.lock")

	first, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = Acquire(ctx, path)
	if err == nil {
		t.Fatal("expected second Acquire to fail while first holds the lock")
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected Acquire to retry until context deadline, returned after %v", elapsed)
	}
}

func TestWithLockReleasesOnFunctionError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.lock")

	boom := func() error { return os.ErrInvalid }
	if err := WithLock(context.Background(), path, boom); err != os.ErrInvalid {
		t.Fatalf("expected boom's error to propagate, got %v", err)
	}

	// Lock must have been released: a second acquire should succeed immediately.
	lock, err := Acquire(context.Background(), path)
	if err != nil {
		t.Fatalf("lock was not released after WithLock returned an error: %v", err)
	}
	lock.Release()
}

func TestWithLockSerializesAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.lock")

	var order []int
	done := make(chan struct{})

	go func() {
		WithLock(context.Background(), path, func() error {
			time.Sleep(50 * time.Millisecond)
			order = append(order, 1)
			return nil
		})
		close(done)
	}()

	time.Sleep(10 * time.Millisecond) // let the goroutine take the lock first
	WithLock(context.Background(), path, func() error {
		order = append(order, 2)
		return nil
	})
	<-done

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("expected serialized order [1 2], got %v", order)
	}
}
