package trigger

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
)

// ErrNoDir is reported by Deferred.Update when the triggers directory
// itself does not exist and the caller did not ask for it to be
// created.
var ErrNoDir = errors.New("triggers directory does not exist")

// ErrNoDeferred is reported by Deferred.Update when triggers/Unincorp
// does not exist and the caller did not ask for write-if-missing.
var ErrNoDeferred = errors.New("triggers deferred file does not exist")

// DeferredHooks receives the parse events of a deferred-file rewrite,
// one TriggerBegin/TriggerPackage*/TriggerEnd sequence per line of the
// old file. The hooks decide what (if anything) the new file gets for
// each line by writing through the DeferredUpdate they are handed
// (trigdef_parse's tdeferred callback table).
type DeferredHooks interface {
	TriggerBegin(u *DeferredUpdate, trig string) error
	TriggerPackage(u *DeferredUpdate, pkg string) error
	TriggerEnd(u *DeferredUpdate) error
}

// DeferredUpdate is the write side of one Deferred.Update run: every
// byte emitted through it lands in Unincorp.new, which replaces
// Unincorp when the run commits.
type DeferredUpdate struct {
	w *bufio.Writer
}

// Printf emits formatted text to the new deferred file
// (trigdef_update_printf).
func (u *DeferredUpdate) Printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(u.w, format, args...); err != nil {
		return dpkgerr.Wrap(err, "write deferred trigger file")
	}
	return nil
}

// Deferred runs the locked parse-and-rewrite protocol over
// triggers/Unincorp (trigdeferred.c).
type Deferred struct {
	triggersDir string
	lock        *Lock
}

// NewDeferred returns a Deferred over triggersDir.
func NewDeferred(triggersDir string) *Deferred {
	return &Deferred{triggersDir: triggersDir, lock: NewLock(triggersDir)}
}

func (d *Deferred) path() string { return filepath.Join(d.triggersDir, "Unincorp") }

// Update acquires the triggers lock, replays the current deferred file
// through hooks (each of which may re-emit, edit or drop its line via
// the DeferredUpdate), lets appendNew add wholly new activations, and
// atomically installs the result as the new Unincorp.
//
// A missing triggers directory reports ErrNoDir and a missing Unincorp
// reports ErrNoDeferred, unless writeIfMissing is set, in which case
// both become an empty starting state. hooks and appendNew may each be
// nil.
func (d *Deferred) Update(writeIfMissing bool, hooks DeferredHooks, appendNew func(u *DeferredUpdate) error) error {
	if _, err := os.Stat(d.triggersDir); err != nil {
		if !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "stat %s", d.triggersDir)
		}
		if !writeIfMissing {
			return ErrNoDir
		}
		if err := os.MkdirAll(d.triggersDir, 0755); err != nil {
			return dpkgerr.Wrap(err, "mkdir %s", d.triggersDir)
		}
	}

	if err := d.lock.Lock(); err != nil {
		return err
	}
	defer d.lock.Unlock()

	old, err := os.Open(d.path())
	if err != nil {
		if !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "open %s", d.path())
		}
		if !writeIfMissing {
			return ErrNoDeferred
		}
	}

	newPath := d.path() + ".new"
	nf, err := os.OpenFile(newPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		if old != nil {
			old.Close()
		}
		return dpkgerr.Wrap(err, "create %s", newPath)
	}
	u := &DeferredUpdate{w: bufio.NewWriter(nf)}

	cleanupNew := func(err error) error {
		nf.Close()
		os.Remove(newPath)
		return err
	}

	if old != nil {
		sc := bufio.NewScanner(old)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			if err := d.replayLine(line, u, hooks); err != nil {
				old.Close()
				return cleanupNew(err)
			}
		}
		scanErr := sc.Err()
		old.Close()
		if scanErr != nil {
			return cleanupNew(dpkgerr.Wrap(scanErr, "read %s", d.path()))
		}
	}

	if appendNew != nil {
		if err := appendNew(u); err != nil {
			return cleanupNew(err)
		}
	}

	if err := u.w.Flush(); err != nil {
		return cleanupNew(dpkgerr.Wrap(err, "write %s", newPath))
	}
	if err := nf.Sync(); err != nil {
		return cleanupNew(dpkgerr.Wrap(err, "sync %s", newPath))
	}
	if err := nf.Close(); err != nil {
		os.Remove(newPath)
		return dpkgerr.Wrap(err, "close %s", newPath)
	}
	if err := os.Rename(newPath, d.path()); err != nil {
		os.Remove(newPath)
		return dpkgerr.Wrap(err, "install %s", d.path())
	}
	return atomicfile.SyncDir(d.triggersDir)
}

func (d *Deferred) replayLine(line string, u *DeferredUpdate, hooks DeferredHooks) error {
	fields := strings.Fields(line)
	trig := fields[0]
	if trig[0] != '/' {
		if err := ValidateName(trig); err != nil {
			return err
		}
	}
	if hooks == nil {
		return u.Printf("%s\n", line)
	}
	if err := hooks.TriggerBegin(u, trig); err != nil {
		return err
	}
	for _, pkg := range fields[1:] {
		if err := hooks.TriggerPackage(u, pkg); err != nil {
			return err
		}
	}
	return hooks.TriggerEnd(u)
}
