package override

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// Entry is one stat override.
type Entry struct {
	Node intern.NodeID

	UID   int32 // Unresolved if UName is set
	UName string

	GID   int32 // Unresolved if GName is set
	GName string

	Mode uint32
}

// Store is the stat overrides database for one administration
// directory.
type Store struct {
	path     string
	arena    *intern.Arena
	reloader *atomicfile.Reloader
	lax      bool

	byNode map[intern.NodeID]*Entry
	order  []intern.NodeID
}

// New returns a Store backed by path (typically adminDir/statoverride).
// When lax is false, an override naming a system user or group that no
// longer exists is a fatal error instead of being recorded unresolved.
func New(path string, arena *intern.Arena, lax bool) *Store {
	return &Store{
		path:     path,
		arena:    arena,
		reloader: atomicfile.NewReloader(path),
		lax:      lax,
		byNode:   map[intern.NodeID]*Entry{},
	}
}

// Load reloads the store if the backing file has changed since the
// last Load, mirroring ensure_statoverrides's dpkg_db_reopen check.
func (s *Store) Load() error {
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
	return s.parseFile(bufio.NewScanner(f))
}

func (s *Store) reset() {
	s.byNode = map[intern.NodeID]*Entry{}
	s.order = nil
}

func (s *Store) parseFile(sc *bufio.Scanner) error {
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			return dpkgerr.New(dpkgerr.ParseError, "%s: statoverride file contains empty line", s.path)
		}

		fields := strings.SplitN(line, " ", 4)
		if len(fields) != 4 {
			return dpkgerr.New(dpkgerr.ParseError, "%s: syntax error in statoverride file", s.path)
		}
		uidTok, gidTok, modeTok, path := fields[0], fields[1], fields[2], fields[3]

		uid, uname, err := parseUID(uidTok)
		if err != nil {
			return err
		}
		if uid == Unresolved && !s.lax {
			return dpkgerr.New(dpkgerr.ParseError,
				"unknown system user %q in statoverride file", uidTok)
		}

		gid, gname, err := parseGID(gidTok)
		if err != nil {
			return err
		}
		if gid == Unresolved && !s.lax {
			return dpkgerr.New(dpkgerr.ParseError,
				"unknown system group %q in statoverride file", gidTok)
		}

		mode, err := parseMode(modeTok)
		if err != nil {
			return err
		}

		node := s.arena.FindNode(path)
		if err := s.addLocked(&Entry{
			Node: node.ID, UID: uid, UName: uname, GID: gid, GName: gname, Mode: mode,
		}); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return dpkgerr.Wrap(err, "read %s", s.path)
	}
	return nil
}

func (s *Store) addLocked(e *Entry) error {
	if _, exists := s.byNode[e.Node]; exists {
		node := s.arena.Node(e.Node)
		return dpkgerr.New(dpkgerr.DuplicateStatoverride,
			"multiple statoverrides present for file %q", node.Path)
	}
	s.byNode[e.Node] = e
	s.order = append(s.order, e.Node)
	return nil
}

// Add registers a new stat override, reporting
// dpkgerr.DuplicateStatoverride if node already has one.
func (s *Store) Add(e *Entry) error {
	return s.addLocked(e)
}

// Remove discards the override for node, if any.
func (s *Store) Remove(node intern.NodeID) {
	if _, ok := s.byNode[node]; !ok {
		return
	}
	delete(s.byNode, node)
	for i, n := range s.order {
		if n == node {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the override for node, or nil.
func (s *Store) Lookup(node intern.NodeID) *Entry {
	return s.byNode[node]
}

// Entries returns every stat override in load/insertion order.
func (s *Store) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.byNode[n])
	}
	return out
}

// Write rewrites the statoverride file atomically from the current
// in-memory entries.
func (s *Store) Write() error {
	af := atomicfile.New(s.path, true)
	if err := af.Open(); err != nil {
		return err
	}

	for _, e := range s.Entries() {
		node := s.arena.Node(e.Node)
		uidField := e.UName
		if uidField == "" {
			uidField = fmt.Sprintf("#%d", e.UID)
		}
		gidField := e.GName
		if gidField == "" {
			gidField = fmt.Sprintf("#%d", e.GID)
		}
		if _, err := fmt.Fprintf(af, "%s %s %04o %s\n", uidField, gidField, e.Mode, node.Path); err != nil {
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
