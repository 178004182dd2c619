package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const lockRetryDelay = 25 * time.Millisecond

// acquire takes the in-process mutex and the advisory file lock guarding the
// settings path. The returned func releases both.
func (f *File) acquire(ctx context.Context) (func(), error) {
	f.mu.Lock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("store: create %s: %w", filepath.Dir(f.path), err)
	}

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		f.mu.Unlock()
		return nil, fmt.Errorf("store: lock %s: %w", f.path, err)
	}
	if !locked {
		f.mu.Unlock()
		return nil, fmt.Errorf("store: lock %s: %w", f.path, ctx.Err())
	}

	return func() {
		_ = f.lock.Unlock()
		f.mu.Unlock()
	}, nil
}
