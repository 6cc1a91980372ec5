package trigger

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/etnz/dpkgdb/dpkgerr"
)

// Lock is the triggers area's advisory write lock (triggers/Lock),
// distinct from the main status database lock so trigger processing
// can be serialized independently of package unpacking/configuration.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns a Lock over triggersDir's "Lock" file.
func NewLock(triggersDir string) *Lock {
	return &Lock{fl: flock.New(filepath.Join(triggersDir, "Lock"))}
}

// TryLock attempts to acquire the lock without blocking.
func (l *Lock) TryLock() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return dpkgerr.Wrap(err, "lock %s", l.fl.Path())
	}
	if !ok {
		return dpkgerr.New(dpkgerr.LockBusy, "triggers area is locked by another process")
	}
	return nil
}

// Lock acquires the lock, blocking until it is available.
func (l *Lock) Lock() error {
	if err := l.fl.Lock(); err != nil {
		return dpkgerr.Wrap(err, "lock %s", l.fl.Path())
	}
	return nil
}

// Unlock releases the lock.
func (l *Lock) Unlock() error {
	if err := l.fl.Unlock(); err != nil {
		return dpkgerr.Wrap(err, "unlock %s", l.fl.Path())
	}
	return nil
}
