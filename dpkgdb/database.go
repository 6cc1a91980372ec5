package dpkgdb

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/diversion"
	"github.com/etnz/dpkgdb/infodb"
	"github.com/etnz/dpkgdb/intern"
	"github.com/etnz/dpkgdb/override"
	"github.com/etnz/dpkgdb/statusdb"
	"github.com/etnz/dpkgdb/trigger"
)

// DefaultAdminDir is the administration directory used when neither
// an explicit path nor DPKG_ADMINDIR is supplied (dpkg_db_new_dir's
// built-in ADMINDIR default).
const DefaultAdminDir = "/var/lib/dpkg"

// AdminDirFromEnv returns the administration directory: the
// DPKG_ADMINDIR environment variable if set, otherwise
// DefaultAdminDir (dpkg_db_new_dir).
func AdminDirFromEnv() string {
	if env := os.Getenv("DPKG_ADMINDIR"); env != "" {
		return env
	}
	return DefaultAdminDir
}

// Database is a handle on every on-disk subsystem rooted at a single
// administration directory, each sharing one Arena so that a
// diversion, override or trigger lookup resolves to the same package
// and filesystem-node entries the status journal uses
// (database.c/dbdir.c's role of tying the library together).
type Database struct {
	AdminDir string
	Root     string

	Colors ColorMode
	Debug  DebugFlags

	Arena    *intern.Arena
	Registry *arch.Registry

	Status     *statusdb.Database
	Diversions *diversion.Store
	Overrides  *override.Store
	Info       *infodb.Store

	Triggers        *trigger.Engine
	TriggerFiles    *trigger.FileStore
	TriggerUnincorp *trigger.UnincorpStore
	TriggerLock     *trigger.Lock

	debug *slog.Logger
}

// Open builds a Database rooted at adminDir for the given native
// architecture. It does not touch the filesystem beyond reading
// info/format (via infodb.Open); call Load to populate it from disk.
// Statoverride entries naming an unknown system user or group are
// rejected unless lax is true.
func Open(adminDir string, native arch.Name, lax bool) (*Database, error) {
	arena := intern.NewArena()
	reg := arch.NewRegistry(native)

	info, err := infodb.Open(adminDir)
	if err != nil {
		return nil, err
	}

	triggersDir := filepath.Join(adminDir, "triggers")

	db := &Database{
		AdminDir:        adminDir,
		Root:            RootFromEnv(),
		Colors:          ColorModeFromEnv(),
		Debug:           DebugFromEnv(),
		Arena:           arena,
		Registry:        reg,
		Status:          statusdb.OpenWith(adminDir, arena, reg),
		Diversions:      diversion.New(filepath.Join(adminDir, "diversions"), arena),
		Overrides:       override.New(filepath.Join(adminDir, "statoverride"), arena, lax),
		Info:            info,
		Triggers:        trigger.NewEngine(arena),
		TriggerFiles:    trigger.NewFileStore(triggersDir, arena),
		TriggerUnincorp: trigger.NewUnincorpStore(adminDir, arena),
		TriggerLock:     trigger.NewLock(triggersDir),
		debug:           debugLogger(),
	}
	return db, nil
}

// debugLogger returns a logger that discards everything unless
// DPKG_DEBUG is set, mirroring dpkg's runtime-gated
// debug() tracing (dbg.c) without paying for a third-party logging
// dependency that this library otherwise has no use for.
func debugLogger() *slog.Logger {
	if os.Getenv("DPKG_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Load reads every subsystem's on-disk state into memory: the status
// journal (and its updates/ deltas), diversions, statoverrides and
// the trigger databases. It acquires no lock; callers that intend to
// write should hold Lock for the whole read-modify-write cycle.
func (db *Database) Load() error {
	db.debug.Debug("loading status journal", "admindir", db.AdminDir)
	if err := db.Status.LoadStatus(); err != nil {
		return err
	}
	db.debug.Debug("loading diversions")
	if err := db.Diversions.Load(); err != nil {
		return err
	}
	db.debug.Debug("loading statoverrides")
	if err := db.Overrides.Load(); err != nil {
		return err
	}
	db.debug.Debug("loading file-trigger interests")
	if err := db.TriggerFiles.Load(); err != nil {
		return err
	}
	db.debug.Debug("loading deferred trigger activations")
	if err := db.TriggerUnincorp.Load(); err != nil {
		return err
	}
	db.Triggers.Rehydrate()
	return nil
}

// RootPath prepends the database's filesystem root to an absolute path
// without doubling the leading separator.
func (db *Database) RootPath(path string) string {
	if db.Root == "" {
		return path
	}
	root := db.Root
	for len(root) > 0 && root[len(root)-1] == '/' {
		root = root[:len(root)-1]
	}
	if len(path) == 0 || path[0] != '/' {
		return root + "/" + path
	}
	return root + path
}

// Close resets the shared Arena, dropping every interned package and
// filesystem node. The diversion, statoverride, info and trigger stores
// are not cleared and keep their records. It does not release any lock
// the caller still holds.
func (db *Database) Close() {
	db.Arena.Reset()
}

// Lock acquires the administration directory's advisory write lock,
// blocking until it is available.
func (db *Database) Lock() error { return db.Status.Lock.Lock() }

// TryLock acquires the advisory write lock without blocking.
func (db *Database) TryLock() error { return db.Status.Lock.TryLock() }

// Unlock releases the advisory write lock.
func (db *Database) Unlock() error { return db.Status.Lock.Unlock() }
