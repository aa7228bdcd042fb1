package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockFilePrefix = "mmti-sync-"
	lockFileSuffix = ".lock"

	lockRetryDelay = 500 * time.Millisecond
)

// RunLock stops two runs against the same store from overlapping on one
// host.
type RunLock struct {
	lock *flock.Flock
	path string
}

// LockPath is the lock file used for storeURI. The URI is hashed so
// credentials never end up in a file name.
func LockPath(dir, storeURI string) string {
	if dir == "" {
		dir = os.TempDir()
	}
	sum := sha256.Sum256([]byte(storeURI))
	return filepath.Join(dir, lockFilePrefix+hex.EncodeToString(sum[:8])+lockFileSuffix)
}

// NewRunLock creates a lock for storeURI in dir (the temp dir when empty).
func NewRunLock(dir, storeURI string) *RunLock {
	path := LockPath(dir, storeURI)
	return &RunLock{lock: flock.New(path), path: path}
}

// Lock acquires the lock. When another run holds it, Lock returns
// ErrLocked unless wait is set, in which case it polls until the lock is
// free or ctx is done.
func (l *RunLock) Lock(ctx context.Context, wait bool) error {
	locked, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", l.path, err)
	}
	if locked {
		return nil
	}
	if !wait {
		return ErrLocked
	}

	Log.Warnf("Another mmti-sync run is using this store, waiting for it to finish...")
	locked, err = l.lock.TryLockContext(ctx, lockRetryDelay)
	if ctxErr := ctx.Err(); ctxErr != nil && !locked {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s after waiting: %w", l.path, err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// ErrLocked is returned by Lock without wait when the lock is held elsewhere.
var ErrLocked = errors.New("another run holds the lock")

// Unlock releases the lock.
func (l *RunLock) Unlock() error {
	if err := l.lock.Unlock(); err != nil {
		// Suppress error if the lock file doesn't exist, as it means we don't hold the lock.
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to release lock on %s: %w", l.path, err)
	}
	return nil
}

// Path is the lock file's location.
func (l *RunLock) Path() string { return l.path }
