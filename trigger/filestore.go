package trigger

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// Await is the activation policy recorded alongside a file-trigger
// interest: whether the activating package blocks on the interested
// package's processing.
type Await int

const (
	TrigAwait Await = iota
	TrigNoAwait
)

func (a Await) String() string {
	if a == TrigNoAwait {
		return "noawait"
	}
	return "await"
}

// ParseAwait parses "await"/"noawait", defaulting to TrigAwait for an
// empty string.
func ParseAwait(s string) (Await, error) {
	switch s {
	case "", "await":
		return TrigAwait, nil
	case "noawait":
		return TrigNoAwait, nil
	default:
		return TrigAwait, dpkgerr.New(dpkgerr.ParseError, "unknown trigger await policy %q", s)
	}
}

// Interest is one file-trigger-interest: pkg wants to be activated
// whenever Path changes, per Policy.
type Interest struct {
	Path   string
	Pkg    *intern.Pkgset
	Policy Await
}

// FileStore is the triggers/File database: the set of packages
// interested in each watched path.
type FileStore struct {
	path     string
	arena    *intern.Arena
	reloader *atomicfile.Reloader

	byPath map[string][]*Interest
}

// NewFileStore returns a FileStore backed by triggersDir/File.
func NewFileStore(triggersDir string, arena *intern.Arena) *FileStore {
	path := filepath.Join(triggersDir, "File")
	return &FileStore{
		path:     path,
		arena:    arena,
		reloader: atomicfile.NewReloader(path),
		byPath:   map[string][]*Interest{},
	}
}

// Load reloads the store if the backing file has changed since the
// last Load.
func (s *FileStore) Load() error {
	status, f, err := s.reloader.Check()
	if err != nil {
		return err
	}
	switch status {
	case atomicfile.DBSame:
		return nil
	case atomicfile.DBNone:
		s.byPath = map[string][]*Interest{}
		return nil
	}
	defer f.Close()

	s.byPath = map[string][]*Interest{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := s.parseLine(line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return dpkgerr.Wrap(err, "read %s", s.path)
	}
	return nil
}

func (s *FileStore) parseLine(line string) error {
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 {
		return dpkgerr.New(dpkgerr.ParseError, "%s: malformed file trigger interest %q", s.path, line)
	}
	path, rest := fields[0], fields[1]
	if err := ValidatePath(path); err != nil {
		return err
	}

	pkgName, policyTok := rest, ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		pkgName, policyTok = rest[:i], rest[i+1:]
	}
	policy, err := ParseAwait(policyTok)
	if err != nil {
		return err
	}

	pkgset := s.arena.FindSet(pkgName)
	s.add(path, pkgset, policy)
	return nil
}

func (s *FileStore) add(path string, pkg *intern.Pkgset, policy Await) {
	for _, in := range s.byPath[path] {
		if in.Pkg == pkg {
			in.Policy = policy
			return
		}
	}
	s.byPath[path] = append(s.byPath[path], &Interest{Path: path, Pkg: pkg, Policy: policy})
}

// Add registers pkg's interest in path with the given policy,
// replacing any existing interest for the same pair.
func (s *FileStore) Add(path string, pkg *intern.Pkgset, policy Await) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	s.add(path, pkg, policy)
	return nil
}

// Remove discards pkg's interest in path, if any.
func (s *FileStore) Remove(path string, pkg *intern.Pkgset) {
	list := s.byPath[path]
	for i, in := range list {
		if in.Pkg == pkg {
			s.byPath[path] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Interested returns every interest registered for path, in no
// particular order.
func (s *FileStore) Interested(path string) []*Interest {
	return append([]*Interest(nil), s.byPath[path]...)
}

// Matching returns every interest whose registered path is path itself
// or a directory prefix of it, so touching a file below a watched
// directory activates the directory's trigger (trig_file's
// filetriggers prefix walk).
func (s *FileStore) Matching(path string) []*Interest {
	var out []*Interest
	for watched, interests := range s.byPath {
		if path == watched || strings.HasPrefix(path, watched+"/") {
			out = append(out, interests...)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Pkg.Name < out[j].Pkg.Name
	})
	return out
}

// Write rewrites triggers/File atomically from the current in-memory
// interests.
func (s *FileStore) Write() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return dpkgerr.Wrap(err, "mkdir %s", filepath.Dir(s.path))
	}

	af := atomicfile.New(s.path, true)
	if err := af.Open(); err != nil {
		return err
	}

	paths := make([]string, 0, len(s.byPath))
	for path := range s.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, in := range s.byPath[path] {
			suffix := ""
			if in.Policy == TrigNoAwait {
				suffix = "/noawait"
			}
			if _, err := fmt.Fprintf(af, "%s %s%s\n", path, in.Pkg.Name, suffix); err != nil {
				af.Close()
				return dpkgerr.Wrap(err, "write %s", s.path)
			}
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
