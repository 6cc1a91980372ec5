package diversion

import (
	"bufio"
	"fmt"
	"io"
	"sync"

	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// Record is one diversion: files destined for From are instead
// installed at To, optionally scoped to a single diverting package
// (nil means the diversion applies regardless of package, the
// original's ":" sentinel).
type Record struct {
	From    intern.NodeID
	To      intern.NodeID
	Package *intern.Pkgset
}

// Store is the diversions database for one administration directory.
// It deliberately keeps the camefrom/useinstead back-pointers here
// rather than on intern.Node, so the low-level interning table stays
// free of this package's record format.
type Store struct {
	mu       sync.Mutex
	path     string
	arena    *intern.Arena
	reloader *atomicfile.Reloader

	records []*Record
	byFrom  map[intern.NodeID]*Record
	byTo    map[intern.NodeID]*Record
}

// New returns a Store backed by path (typically adminDir/diversions).
func New(path string, arena *intern.Arena) *Store {
	return &Store{
		path:     path,
		arena:    arena,
		reloader: atomicfile.NewReloader(path),
		byFrom:   map[intern.NodeID]*Record{},
		byTo:     map[intern.NodeID]*Record{},
	}
}

// Load reloads the store if the backing file has changed since the
// last Load, mirroring ensure_diversions's dpkg_db_reopen check.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	return s.parse(f)
}

func (s *Store) reset() {
	s.records = nil
	s.byFrom = map[intern.NodeID]*Record{}
	s.byTo = map[intern.NodeID]*Record{}
}

func (s *Store) parse(r io.Reader) error {
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		from := sc.Text()

		if !sc.Scan() {
			return dpkgerr.New(dpkgerr.ParseError, "%s: truncated diversion record for %q", s.path, from)
		}
		to := sc.Text()

		if !sc.Scan() {
			return dpkgerr.New(dpkgerr.ParseError, "%s: truncated diversion record for %q", s.path, from)
		}
		pkgLine := sc.Text()

		fromNode := s.arena.FindNode(from)
		toNode := s.arena.FindNode(to)

		var pkgset *intern.Pkgset
		if pkgLine != ":" {
			pkgset = s.arena.FindSet(pkgLine)
		}

		if err := s.addLocked(fromNode.ID, toNode.ID, pkgset); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return dpkgerr.Wrap(err, "read %s", s.path)
	}
	return nil
}

func (s *Store) addLocked(from, to intern.NodeID, pkgset *intern.Pkgset) error {
	// A node already playing either role in an existing diversion
	// cannot take on a role in a new one, matching db-fsys-divert.c's
	// single shared divert pointer per node: it is checked regardless
	// of which side (camefrom/useinstead) the node was previously on.
	if _, exists := s.byFrom[from]; exists {
		return s.conflictErr(from, to)
	}
	if _, exists := s.byTo[from]; exists {
		return s.conflictErr(from, to)
	}
	if _, exists := s.byFrom[to]; exists {
		return s.conflictErr(from, to)
	}
	if _, exists := s.byTo[to]; exists {
		return s.conflictErr(from, to)
	}

	rec := &Record{From: from, To: to, Package: pkgset}
	s.records = append(s.records, rec)
	s.byFrom[from] = rec
	s.byTo[to] = rec
	return nil
}

func (s *Store) conflictErr(from, to intern.NodeID) error {
	fromNode := s.arena.Node(from)
	toNode := s.arena.Node(to)
	return dpkgerr.New(dpkgerr.ConflictingDiversion,
		"conflicting diversions involving %q or %q", fromNode.Path, toNode.Path)
}

// Add registers a new diversion, reporting dpkgerr.ConflictingDiversion
// if either endpoint is already part of another diversion.
func (s *Store) Add(from, to intern.NodeID, pkgset *intern.Pkgset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(from, to, pkgset)
}

// Remove discards the diversion whose camefrom side is node, if any.
func (s *Store) Remove(node intern.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byFrom[node]
	if !ok {
		return
	}
	delete(s.byFrom, rec.From)
	delete(s.byTo, rec.To)
	for i, r := range s.records {
		if r == rec {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
}

// LookupFrom returns the diversion whose camefrom side is node, or nil.
func (s *Store) LookupFrom(node intern.NodeID) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byFrom[node]
}

// LookupTo returns the diversion whose useinstead side is node, or nil.
func (s *Store) LookupTo(node intern.NodeID) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byTo[node]
}

// Records returns every diversion currently known, in no particular
// order.
func (s *Store) Records() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Record, len(s.records))
	copy(out, s.records)
	return out
}

// Write rewrites the diversions file atomically from the current
// in-memory records.
func (s *Store) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	af := atomicfile.New(s.path, true)
	if err := af.Open(); err != nil {
		return err
	}

	for _, rec := range s.records {
		from := s.arena.Node(rec.From)
		to := s.arena.Node(rec.To)
		pkgName := ":"
		if rec.Package != nil {
			pkgName = rec.Package.Name
		}
		if _, err := fmt.Fprintf(af, "%s\n%s\n%s\n", from.Path, to.Path, pkgName); err != nil {
			af.Close()
			return dpkgerr.Wrap(err, "write %s", s.path)
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
