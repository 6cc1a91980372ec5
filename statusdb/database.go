package statusdb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/control"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// MaxUpdates is the number of accumulated updates/ files after which
// the next write forces a full status rewrite instead of appending
// one more delta, bounding how much work a crash recovery replay has
// to redo.
const MaxUpdates = 250

// Database is the status journal for one administration directory.
type Database struct {
	AdminDir string
	Arena    *intern.Arena
	Registry *arch.Registry
	Lock     *Lock

	updateSeq int
}

// Open returns a Database rooted at adminDir, with its own private
// Arena and Registry. It does not read or write anything on disk;
// call LoadStatus to populate Arena.
func Open(adminDir string, native arch.Name) *Database {
	return OpenWith(adminDir, intern.NewArena(), arch.NewRegistry(native))
}

// OpenWith returns a Database rooted at adminDir sharing an
// already-constructed Arena and Registry, for callers (such as the
// root dpkgdb.Database) that need diversions, overrides and the
// trigger engine to resolve into the same interning table as the
// status journal.
func OpenWith(adminDir string, arena *intern.Arena, reg *arch.Registry) *Database {
	return &Database{
		AdminDir: adminDir,
		Arena:    arena,
		Registry: reg,
		Lock:     NewLock(adminDir),
	}
}

func (db *Database) statusPath() string { return filepath.Join(db.AdminDir, "status") }

// LoadStatus reads the status file, preferring "status" itself since
// its presence means the last commit's rename already completed. If
// it is missing it falls back to "status-new" (a crash after the new
// content was synced but before the commit rename) and finally
// "status-old" (a crash that left only the backup of the prior
// commit). It then replays updates/ on top, in ascending numeric
// order.
func (db *Database) LoadStatus() error {
	candidates := []string{
		db.statusPath(),
		db.statusPath() + "-new",
		db.statusPath() + "-old",
	}

	var path string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			path = c
			break
		} else if !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "stat %s", c)
		}
	}
	if path == "" {
		return db.ApplyUpdates()
	}

	f, err := os.Open(path)
	if err != nil {
		return dpkgerr.Wrap(err, "open %s", path)
	}
	defer f.Close()

	if err := db.loadStanzas(bufio.NewReader(f), path); err != nil {
		return err
	}
	return db.ApplyUpdates()
}

func (db *Database) loadStanzas(r *bufio.Reader, path string) error {
	stanzas, err := control.ParseStanzas(r, path)
	if err != nil {
		return err
	}
	for _, st := range stanzas {
		if _, err := control.ParsePkgInfo(st, db.Arena, db.Registry); err != nil {
			return dpkgerr.Wrap(err, "loading %s", path)
		}
	}
	return nil
}

// WriteStatus atomically rewrites the status file from every
// currently informative package instance, then discards any
// accumulated updates/ deltas (they are now folded into the rewrite).
func (db *Database) WriteStatus() (err error) {
	af := atomicfile.New(db.statusPath(), true)
	if err := af.Open(); err != nil {
		return err
	}

	// A half-written status-new must not survive a failed WriteStatus:
	// push the cleanup as soon as the temp file exists, and let Unwind
	// remove it on any error return.
	var cleanup dpkgerr.CleanupStack
	cleanup.Push(false, true, func() { af.DiscardNew() })
	defer func() { cleanup.Unwind(err) }()

	for _, set := range db.Arena.Sets() {
		for _, pid := range set.Instances {
			pkg := db.Arena.Pkg(pid)
			if !pkg.IsInformative() {
				continue
			}
			st := control.FormatPkgInfo(set, pkg)
			if err := st.Write(af); err != nil {
				af.Close()
				return dpkgerr.Wrap(err, "write %s", db.statusPath())
			}
			if _, err := af.Write([]byte("\n")); err != nil {
				af.Close()
				return err
			}
		}
	}

	if err := af.Sync(); err != nil {
		return err
	}
	if err := af.Close(); err != nil {
		return err
	}
	if err := af.Commit(); err != nil {
		return err
	}
	cleanup.Pop(false)

	if err := db.clearUpdates(); err != nil {
		return err
	}

	// The backup made by Commit is only needed while the commit itself
	// can still be interrupted; with the rewrite and the journal purge
	// both durable, drop it.
	if err := os.Remove(db.statusPath() + "-old"); err != nil && !os.IsNotExist(err) {
		return dpkgerr.Wrap(err, "remove %s", db.statusPath()+"-old")
	}
	return nil
}

func (db *Database) updatesDir() string { return filepath.Join(db.AdminDir, "updates") }

var updateNamePattern = regexp.MustCompile(`^[0-9]+$`)

// listUpdates returns the updates/ directory's entries sorted in
// ascending numeric order. A non-numeric filename is a fatal
// CorruptDatabase error naming the offending file, per this package's
// resolved policy for an otherwise-unspecified ordering rule.
func (db *Database) listUpdates() ([]string, error) {
	entries, err := os.ReadDir(db.updatesDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dpkgerr.Wrap(err, "read %s", db.updatesDir())
	}

	var nums []int
	byNum := map[int]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !updateNamePattern.MatchString(name) {
			return nil, dpkgerr.New(dpkgerr.CorruptDatabase,
				"updates file %q has a non-numeric name", name)
		}
		n, err := strconv.Atoi(name)
		if err != nil {
			return nil, dpkgerr.New(dpkgerr.CorruptDatabase,
				"updates file %q has a non-numeric name", name)
		}
		nums = append(nums, n)
		byNum[n] = name
	}
	sort.Ints(nums)

	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, byNum[n])
	}
	return out, nil
}

// ApplyUpdates replays every updates/ file, in ascending numeric
// order, into Arena.
func (db *Database) ApplyUpdates() error {
	names, err := db.listUpdates()
	if err != nil {
		return err
	}
	for _, name := range names {
		path := filepath.Join(db.updatesDir(), name)
		f, err := os.Open(path)
		if err != nil {
			return dpkgerr.Wrap(err, "open %s", path)
		}
		err = db.loadStanzas(bufio.NewReader(f), path)
		f.Close()
		if err != nil {
			return err
		}
		if n, convErr := strconv.Atoi(name); convErr == nil && n >= db.updateSeq {
			db.updateSeq = n + 1
		}
	}
	return nil
}

// AppendUpdate commits pkgs as a new updates/NNNN delta file. Once
// MaxUpdates deltas have accumulated, it instead performs a full
// WriteStatus and clears the updates directory.
func (db *Database) AppendUpdate(pkgs []*intern.PkgInfo) (err error) {
	names, err := db.listUpdates()
	if err != nil {
		return err
	}
	if len(names) >= MaxUpdates || db.updateSeq > 9999 {
		return db.WriteStatus()
	}

	if err := os.MkdirAll(db.updatesDir(), 0755); err != nil {
		return dpkgerr.Wrap(err, "mkdir %s", db.updatesDir())
	}

	path := filepath.Join(db.updatesDir(), fmt.Sprintf("%04d", db.updateSeq))
	db.updateSeq++

	af := atomicfile.New(path, false)
	if err := af.Open(); err != nil {
		return err
	}

	var cleanup dpkgerr.CleanupStack
	cleanup.Push(false, true, func() { af.DiscardNew() })
	defer func() { cleanup.Unwind(err) }()

	for _, pkg := range pkgs {
		set := db.Arena.Pkgset(pkg.Set)
		st := control.FormatPkgInfo(set, pkg)
		if err := st.Write(af); err != nil {
			af.Close()
			return dpkgerr.Wrap(err, "write %s", path)
		}
		if _, err := af.Write([]byte("\n")); err != nil {
			af.Close()
			return err
		}
	}
	if err := af.Sync(); err != nil {
		return err
	}
	if err := af.Close(); err != nil {
		return err
	}
	return af.Commit()
}

// clearUpdates removes every updates/ delta file and fsyncs the
// updates directory afterward, so a crash cannot leave a stale delta
// that WriteStatus already folded into the full rewrite.
func (db *Database) clearUpdates() error {
	names, err := db.listUpdates()
	if err != nil {
		return err
	}
	db.updateSeq = 0
	if len(names) == 0 {
		return nil
	}
	for _, name := range names {
		if err := os.Remove(filepath.Join(db.updatesDir(), name)); err != nil && !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "remove %s", name)
		}
	}
	if err := atomicfile.SyncDir(db.updatesDir()); err != nil {
		return err
	}
	return atomicfile.SyncDir(db.AdminDir)
}
