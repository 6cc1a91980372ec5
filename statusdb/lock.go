package statusdb

import (
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/etnz/dpkgdb/dpkgerr"
)

// Lock is the administration directory's advisory write lock
// (adminDir/lock), serializing every writer the way lock_file/
// unlock_file do in dpkg. It is implemented
// with flock(2) rather than dpkg's fcntl byte-range lock;
// both are whole-process advisory locks and the distinction is not
// observable by callers of this package.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns a Lock over adminDir's "lock" file.
func NewLock(adminDir string) *Lock {
	return &Lock{fl: flock.New(filepath.Join(adminDir, "lock"))}
}

// TryLock attempts to acquire the lock without blocking, reporting
// dpkgerr.LockBusy if another process holds it (matching fcntl's
// EACCES/EAGAIN path with F_SETLK).
func (l *Lock) TryLock() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return dpkgerr.Wrap(err, "lock %s", l.fl.Path())
	}
	if !ok {
		return dpkgerr.New(dpkgerr.LockBusy, "status database is locked by another process")
	}
	return nil
}

// Lock acquires the lock, blocking until it is available (matching
// fcntl's F_SETLKW path).
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
