package trigger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// Activation is one deferred trigger activation: trig has been
// activated against every package in Packages, which are (absent a
// noawait interest) awaiting its processing.
type Activation struct {
	Trigger  string
	Packages []*intern.Pkgset
}

// UnincorpStore is the triggers/Unincorp database of activations that
// have not yet been incorporated into the status journal.
type UnincorpStore struct {
	triggersDir string
	arena       *intern.Arena
	lock        *Lock
	reloader    *atomicfile.Reloader

	activations []Activation
	index       map[string]int // trigger name -> index into activations
}

// NewUnincorpStore returns an UnincorpStore backed by
// adminDir/triggers/Unincorp.
func NewUnincorpStore(adminDir string, arena *intern.Arena) *UnincorpStore {
	dir := filepath.Join(adminDir, "triggers")
	return &UnincorpStore{
		triggersDir: dir,
		arena:       arena,
		lock:        NewLock(dir),
		reloader:    atomicfile.NewReloader(filepath.Join(dir, "Unincorp")),
		index:       map[string]int{},
	}
}

func (s *UnincorpStore) path() string { return filepath.Join(s.triggersDir, "Unincorp") }

// Load reloads the store if the backing file has changed since the
// last Load (trigdef_update_start / trigdef_parse).
func (s *UnincorpStore) Load() error {
	status, f, err := s.reloader.Check()
	if err != nil {
		return err
	}
	switch status {
	case atomicfile.DBSame:
		return nil
	case atomicfile.DBNone:
		s.reset()
		return nil
	}
	defer f.Close()

	s.reset()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.parseLine(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return dpkgerr.Wrap(err, "read %s", s.path())
	}
	return nil
}

func (s *UnincorpStore) reset() {
	s.activations = nil
	s.index = map[string]int{}
}

func (s *UnincorpStore) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) < 1 {
		return dpkgerr.New(dpkgerr.ParseError, "%s: empty trigger directive", s.path())
	}
	trig := fields[0]
	if err := ValidateName(trig); err != nil {
		return err
	}

	pkgs := make([]*intern.Pkgset, 0, len(fields)-1)
	for _, name := range fields[1:] {
		pkgs = append(pkgs, s.arena.FindSet(name))
	}

	s.addLocked(trig, pkgs)
	return nil
}

func (s *UnincorpStore) addLocked(trig string, pkgs []*intern.Pkgset) {
	if i, ok := s.index[trig]; ok {
		s.activations[i].Packages = mergeSets(s.activations[i].Packages, pkgs)
		return
	}
	s.index[trig] = len(s.activations)
	s.activations = append(s.activations, Activation{Trigger: trig, Packages: pkgs})
}

func mergeSets(existing, add []*intern.Pkgset) []*intern.Pkgset {
	seen := map[intern.PkgsetID]bool{}
	for _, p := range existing {
		seen[p.ID] = true
	}
	for _, p := range add {
		if !seen[p.ID] {
			existing = append(existing, p)
			seen[p.ID] = true
		}
	}
	return existing
}

// Add records that trig has been activated against pkg, merging with
// any existing activation for the same trigger name.
func (s *UnincorpStore) Add(trig string, pkg *intern.Pkgset) error {
	if err := ValidateName(trig); err != nil {
		return err
	}
	s.addLocked(trig, []*intern.Pkgset{pkg})
	return nil
}

// Remove discards trig's activation entirely, once it has been fully
// incorporated.
func (s *UnincorpStore) Remove(trig string) {
	i, ok := s.index[trig]
	if !ok {
		return
	}
	delete(s.index, trig)
	s.activations = append(s.activations[:i], s.activations[i+1:]...)
	for name, idx := range s.index {
		if idx > i {
			s.index[name] = idx - 1
		}
	}
}

// Activations returns every deferred activation currently recorded.
func (s *UnincorpStore) Activations() []Activation {
	return append([]Activation(nil), s.activations...)
}

// Write locks the triggers area, rewrites triggers/Unincorp atomically
// from the current in-memory activations, and unlocks, mirroring
// trigdef_update_start/trigdef_process_done's lock-rewrite-rename
// protocol.
func (s *UnincorpStore) Write() error {
	if err := os.MkdirAll(s.triggersDir, 0755); err != nil {
		return dpkgerr.Wrap(err, "mkdir %s", s.triggersDir)
	}
	if err := s.lock.Lock(); err != nil {
		return err
	}
	defer s.lock.Unlock()

	af := atomicfile.New(s.path(), false)
	if err := af.Open(); err != nil {
		return err
	}

	for _, a := range s.activations {
		line := a.Trigger
		for _, p := range a.Packages {
			line += " " + p.Name
		}
		if _, err := fmt.Fprintf(af, "%s\n", line); err != nil {
			af.Close()
			return dpkgerr.Wrap(err, "write %s", s.path())
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
