package infodb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/atomicfile"
	"github.com/etnz/dpkgdb/dpkgerr"
)

// Well-known info file extensions, matching dpkg's fixed set
// of per-package control files (pkg-files.c, db-fsys-load.c).
const (
	ExtList      = "list"
	ExtMd5sums   = "md5sums"
	ExtConffiles = "conffiles"
	ExtTriggers  = "triggers"

	ScriptPreinst  = "preinst"
	ScriptPostinst = "postinst"
	ScriptPrerm    = "prerm"
	ScriptPostrm   = "postrm"
	ScriptConfig   = "config"
)

// Store resolves info/ file paths for one administration directory.
type Store struct {
	dir       string
	multiArch bool
}

// Open returns a Store rooted at adminDir/info, reading the
// info/format marker to decide whether per-package files are named
// "pkg.ext" or "pkg:arch.ext".
func Open(adminDir string) (*Store, error) {
	dir := filepath.Join(adminDir, "info")
	s := &Store{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, "format"))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, dpkgerr.Wrap(err, "read info/format")
	}

	n, convErr := strconv.Atoi(strings.TrimSpace(string(data)))
	if convErr != nil {
		return nil, dpkgerr.New(dpkgerr.CorruptDatabase, "info/format contains a non-numeric version %q", string(data))
	}
	if n > 1 {
		return nil, dpkgerr.New(dpkgerr.CorruptDatabase, "info/format version %d is newer than supported", n)
	}
	s.multiArch = n == 1
	return s, nil
}

// Base returns the filename stem used for name's info files: "name"
// for single-arch layouts, or "name:arch" once info/format enables
// multi-arch naming.
func (s *Store) Base(name string, a arch.Name) string {
	if s.multiArch && a != "" {
		return fmt.Sprintf("%s:%s", name, a)
	}
	return name
}

// MultiArch reports whether info/format enabled "pkg:arch" naming.
func (s *Store) MultiArch() bool { return s.multiArch }

// Path returns the on-disk path of base's info file with extension ext.
func (s *Store) Path(base, ext string) string {
	return filepath.Join(s.dir, base+"."+ext)
}

// Has reports whether base's info file with extension ext exists.
func (s *Store) Has(base, ext string) bool {
	_, err := os.Stat(s.Path(base, ext))
	return err == nil
}

// ReadList returns the paths recorded in base's .list file, one per
// line, in file order.
func (s *Store) ReadList(base string) ([]string, error) {
	return s.readLines(s.Path(base, ExtList))
}

// WriteList rewrites base's .list file atomically.
func (s *Store) WriteList(base string, paths []string) error {
	return s.writeLines(s.Path(base, ExtList), paths)
}

// ReadConffiles returns the paths recorded in base's .conffiles file.
func (s *Store) ReadConffiles(base string) ([]string, error) {
	return s.readLines(s.Path(base, ExtConffiles))
}

// WriteConffiles rewrites base's .conffiles file atomically.
func (s *Store) WriteConffiles(base string, paths []string) error {
	return s.writeLines(s.Path(base, ExtConffiles), paths)
}

func (s *Store) readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dpkgerr.Wrap(err, "open %s", path)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, dpkgerr.Wrap(err, "read %s", path)
	}
	return lines, nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return dpkgerr.Wrap(err, "mkdir %s", s.dir)
	}
	return nil
}

func (s *Store) writeLines(path string, lines []string) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	af := atomicfile.New(path, false)
	if err := af.Open(); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(af, "%s\n", line); err != nil {
			af.Close()
			return dpkgerr.Wrap(err, "write %s", path)
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

// ReadMd5sums returns base's .md5sums file as a path -> hex digest
// map, in the "digest  path" format the archive tools write. The file
// stores paths without their leading "/"; the returned keys have it
// restored, so they match the keys WriteMd5sums was given.
func (s *Store) ReadMd5sums(base string) (map[string]string, error) {
	path := s.Path(base, ExtMd5sums)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, dpkgerr.Wrap(err, "open %s", path)
	}
	defer f.Close()

	out := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "  ", 2)
		if len(fields) != 2 {
			// Fall back to single-space separation for hand-edited files.
			fields = strings.SplitN(line, " ", 2)
		}
		if len(fields) != 2 {
			return nil, dpkgerr.New(dpkgerr.ParseError, "%s: malformed md5sums line %q", path, line)
		}
		out["/"+strings.TrimPrefix(strings.TrimSpace(fields[1]), "/")] = strings.TrimSpace(fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, dpkgerr.Wrap(err, "read %s", path)
	}
	return out, nil
}

// WriteMd5sums rewrites base's .md5sums file atomically, sorted by path.
func (s *Store) WriteMd5sums(base string, digests map[string]string) error {
	paths := make([]string, 0, len(digests))
	for p := range digests {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	if err := s.ensureDir(); err != nil {
		return err
	}
	path := s.Path(base, ExtMd5sums)
	af := atomicfile.New(path, false)
	if err := af.Open(); err != nil {
		return err
	}
	for _, p := range paths {
		clean := strings.TrimPrefix(p, "/")
		if _, err := fmt.Fprintf(af, "%s  %s\n", digests[p], clean); err != nil {
			af.Close()
			return dpkgerr.Wrap(err, "write %s", path)
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

// ReadScript returns the content of base's maintainer script named
// by script (one of the Script* constants), and whether it exists.
func (s *Store) ReadScript(base, script string) (string, bool, error) {
	path := s.Path(base, script)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, dpkgerr.Wrap(err, "read %s", path)
	}
	return string(data), true, nil
}

// WriteScript installs content as base's maintainer script, executable.
func (s *Store) WriteScript(base, script, content string) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	path := s.Path(base, script)
	af := atomicfile.New(path, false)
	if err := af.Open(); err != nil {
		return err
	}
	if _, err := af.Write([]byte(content)); err != nil {
		af.Close()
		return dpkgerr.Wrap(err, "write %s", path)
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
	return os.Chmod(path, 0755)
}

// RemoveScript deletes base's maintainer script, if present.
func (s *Store) RemoveScript(base, script string) error {
	err := os.Remove(s.Path(base, script))
	if err != nil && !os.IsNotExist(err) {
		return dpkgerr.Wrap(err, "remove %s", s.Path(base, script))
	}
	return nil
}

// ReadTriggers returns the raw contents of base's .triggers file, for
// the trigger engine to parse, and whether it exists.
func (s *Store) ReadTriggers(base string) ([]byte, bool, error) {
	path := s.Path(base, ExtTriggers)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, dpkgerr.Wrap(err, "read %s", path)
	}
	return data, true, nil
}

// RemoveAll deletes every known info file for base, used when purging
// a package.
func (s *Store) RemoveAll(base string) error {
	exts := []string{ExtList, ExtMd5sums, ExtConffiles, ExtTriggers,
		ScriptPreinst, ScriptPostinst, ScriptPrerm, ScriptPostrm, ScriptConfig}
	for _, ext := range exts {
		if err := os.Remove(s.Path(base, ext)); err != nil && !os.IsNotExist(err) {
			return dpkgerr.Wrap(err, "remove %s", s.Path(base, ext))
		}
	}
	return nil
}
