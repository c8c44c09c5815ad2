package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked means another run holds the store's lock.
var ErrLocked = errors.New("output store is in use by another run")

// OutputLock is an advisory lock held on <store>.lock for the duration of a run.
type OutputLock struct {
	path string
	lock *flock.Flock
}

// Lock acquires the advisory lock for the store at storePath without blocking.
func Lock(storePath string) (*OutputLock, error) {
	lockPath := storePath + ".lock"
	fl := flock.New(lockPath)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, lockPath)
	}
	return &OutputLock{path: lockPath, lock: fl}, nil
}

// Path returns the lock file location.
func (l *OutputLock) Path() string { return l.path }

// Release unlocks and removes the lock file.
func (l *OutputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock %s: %w", l.path, err)
	}
	return nil
}
