package prepare

import (
	"fmt"

	"github.com/gofrs/flock"

	"cyclerprep/internal/faults"
)

// LockName is the lock file guarding path.
func LockName(path string) string { return path + ".lock" }

// acquire takes the lock for path without waiting. A lock held by another
// process yields faults.ErrLocked.
func acquire(path string) (*flock.Flock, error) {
	lock := flock.New(LockName(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, faults.Errorf(faults.ErrLocked, "lock", "%s is held by another process", lock.Path())
	}
	return lock, nil
}
