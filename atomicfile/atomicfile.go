package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/etnz/dpkgdb/dpkgerr"
)

const newExt = "-new"
const oldExt = "-old"

// File is a handle on one atomic-replace operation (struct atomic_file
// dpkg's struct atomic_file).
type File struct {
	name    string
	nameNew string
	backup  bool
	f       *os.File
}

// New returns a handle for replacing name. If backup is true, Commit
// hard-links the previous content to name+"-old" before renaming the
// new content into place.
func New(name string, backup bool) *File {
	return &File{name: name, nameNew: name + newExt, backup: backup}
}

// Open creates name-new for writing, mode 0644 (atomic_file_open).
func (f *File) Open() error {
	file, err := os.OpenFile(f.nameNew, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return dpkgerr.Wrap(err, "create %s", f.nameNew)
	}
	f.f = file
	return nil
}

// Write writes to the new file.
func (f *File) Write(p []byte) (int, error) {
	n, err := f.f.Write(p)
	if err != nil {
		return n, dpkgerr.Wrap(err, "write %s", f.nameNew)
	}
	return n, nil
}

// Sync flushes and fsyncs the new file's content to disk
// (atomic_file_sync).
func (f *File) Sync() error {
	if err := f.f.Sync(); err != nil {
		return dpkgerr.Wrap(err, "sync %s", f.nameNew)
	}
	return nil
}

// Close closes the new file without installing it
// (atomic_file_close).
func (f *File) Close() error {
	if err := f.f.Close(); err != nil {
		return dpkgerr.Wrap(err, "close %s", f.nameNew)
	}
	return nil
}

// Commit optionally backs up the current content of name to name-old,
// then renames name-new onto name (atomic_file_backup +
// atomic_file_commit). Commit must be called after Close.
func (f *File) Commit() error {
	if f.backup {
		nameOld := f.name + oldExt
		if err := os.Remove(nameOld); err != nil && !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "remove old backup %s", nameOld)
		}
		if err := os.Link(f.name, nameOld); err != nil && !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "create backup %s", nameOld)
		}
	}
	if err := os.Rename(f.nameNew, f.name); err != nil {
		return dpkgerr.Wrap(err, "install %s", f.name)
	}
	return SyncDir(filepath.Dir(f.name))
}

// SyncDir opens and fsyncs a directory so that a preceding rename
// within it is durable across a crash, not just ordered (the
// directory-fsync half of atomic_file_commit's durability contract).
func SyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return dpkgerr.Wrap(err, "open %s", dir)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return dpkgerr.Wrap(err, "sync %s", dir)
	}
	return nil
}

// Remove discards an in-progress replacement: it removes name-new and,
// if present, name itself (atomic_file_remove).
func (f *File) Remove() error {
	if err := os.Remove(f.nameNew); err != nil {
		return dpkgerr.Wrap(err, "remove %s", f.nameNew)
	}
	if err := os.Remove(f.name); err != nil && !os.IsNotExist(err) {
		return dpkgerr.Wrap(err, "remove %s", f.name)
	}
	return nil
}

// DiscardNew removes only name-new, leaving the current name untouched.
// Unlike Remove, it is safe to run as an error-path cleanup after Commit
// has not yet run: the previously installed name is never disturbed.
func (f *File) DiscardNew() error {
	if err := os.Remove(f.nameNew); err != nil && !os.IsNotExist(err) {
		return dpkgerr.Wrap(err, "remove %s", f.nameNew)
	}
	return nil
}

// Name returns the final path this File will install to.
func (f *File) Name() string { return f.name }
