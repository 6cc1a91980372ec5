package specifier

import (
	"path/filepath"
	"strings"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// ArchDefault chooses how a specifier with no architecture qualifier
// matches instances of a multi-arch-capable package set.
type ArchDefault int

const (
	// ArchDefSingle matches only when the set has at most one installed
	// instance (psf_arch_def_single): the historical single-architecture
	// behaviour used by commands that expect exactly one match.
	ArchDefSingle ArchDefault = iota
	// ArchDefWildcard matches every instance of the set
	// (psf_arch_def_wildcard): used by commands that operate over every
	// architecture at once.
	ArchDefWildcard
)

// Options controls how a specifier string is parsed.
type Options struct {
	// Patterns enables glob detection in the name and architecture
	// tokens (psf_patterns). When false, a literal '*', '[', '?' or '\'
	// is rejected by name/architecture validation instead.
	Patterns bool
	// ArchDefault chooses the no-architecture matching policy.
	ArchDefault ArchDefault
}

// Spec is a parsed package specifier: a package name (or pattern) and
// an optional architecture (or pattern).
type Spec struct {
	Name        string
	NamePattern bool

	Arch        arch.Name
	ArchPattern bool

	opts Options
}

// Parse splits str on the first ':' into a name and an optional
// architecture, then validates it (pkg_spec_parse).
func Parse(str string, opts Options) (*Spec, error) {
	name, archName := str, ""
	if i := strings.IndexByte(str, ':'); i >= 0 {
		name, archName = str[:i], str[i+1:]
	}
	return New(name, archName, opts)
}

// New builds a Spec from an already-split name and architecture
// (pkg_spec_set).
func New(name, archName string, opts Options) (*Spec, error) {
	s := &Spec{
		Name: strings.ToLower(name),
		Arch: arch.Name(archName),
		opts: opts,
	}

	if opts.Patterns && isGlob(s.Name) {
		s.NamePattern = true
	}
	if opts.Patterns && isGlob(string(s.Arch)) {
		s.ArchPattern = true
	}

	if !s.NamePattern {
		if err := validatePkgName(s.Name); err != nil {
			return nil, err
		}
	}
	if s.Arch != "" && !s.ArchPattern {
		if err := validateArchName(string(s.Arch)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// CheckAmbiguous applies the psf_arch_def_single restriction: when the
// specifier carries no architecture (qualifier or pattern) and was
// parsed with ArchDefSingle, the named set must have at most one
// installed instance (pkg_spec_is_illegal's ambiguous-instance check).
func (s *Spec) CheckAmbiguous(arena *intern.Arena) error {
	if s.Arch != "" || s.ArchPattern || s.opts.ArchDefault != ArchDefSingle {
		return nil
	}
	set := arena.LookupSet(s.Name)
	if set == nil {
		return nil
	}
	if set.InstalledInstances > 1 {
		return dpkgerr.New(dpkgerr.AmbiguousPackage,
			"ambiguous package name %q with more than one installed instance", s.Name)
	}
	return nil
}

// MatchName reports whether name satisfies the specifier's name
// component (pkg_spec_match_name).
func (s *Spec) MatchName(name string) bool {
	name = strings.ToLower(name)
	if s.NamePattern {
		ok, _ := filepath.Match(s.Name, name)
		return ok
	}
	return s.Name == name
}

// MatchArch reports whether a pkgbin of architecture a, belonging to a
// set with installedInstances installed instances, satisfies the
// specifier's architecture component (pkg_spec_match_arch).
func (s *Spec) MatchArch(a arch.Name, installedInstances int) bool {
	if s.ArchPattern {
		ok, _ := filepath.Match(string(s.Arch), string(a))
		return ok
	}
	if s.Arch != "" {
		return s.Arch == a
	}
	switch s.opts.ArchDefault {
	case ArchDefWildcard:
		return true
	default:
		return installedInstances <= 1
	}
}

// Match reports whether pkg (an instance of set) satisfies the
// specifier as a whole (pkg_spec_match_pkg).
func (s *Spec) Match(set *intern.Pkgset, pkg *intern.PkgInfo) bool {
	return s.MatchName(set.Name) && s.MatchArch(pkg.Arch, set.InstalledInstances)
}

// Find resolves the specifier to a single package instance
// (pkg_spec_get_pkg): with no architecture qualifier it looks up the
// set's singleton instance, erroring if the set is unknown or
// ambiguous; otherwise it returns (creating if necessary) the named
// architecture instance.
func (s *Spec) Find(arena *intern.Arena) (*intern.PkgInfo, error) {
	if s.Arch == "" && !s.ArchPattern {
		return arena.FindSingleton(s.Name)
	}
	return arena.FindPkg(s.Name, s.Arch), nil
}

// Iterate returns every known package instance matching the specifier,
// in arena interning order (pkg_spec_iter_next_pkg, collapsed into an
// eager slice since the core has no need for dpkg's
// suspended-iterator form).
func (s *Spec) Iterate(arena *intern.Arena) []*intern.PkgInfo {
	var sets []*intern.Pkgset
	if s.NamePattern {
		for _, set := range arena.Sets() {
			if s.MatchName(set.Name) {
				sets = append(sets, set)
			}
		}
	} else if set := arena.LookupSet(s.Name); set != nil {
		sets = append(sets, set)
	}

	var out []*intern.PkgInfo
	for _, set := range sets {
		for _, pid := range set.Instances {
			pkg := arena.Pkg(pid)
			if pkg.Arch == "" {
				continue // unclaimed placeholder instance
			}
			if s.MatchArch(pkg.Arch, set.InstalledInstances) {
				out = append(out, pkg)
			}
		}
	}
	return out
}

// ParsePkg parses str and resolves it to a single package instance in
// one step (pkg_spec_parse_pkg).
func ParsePkg(arena *intern.Arena, str string, opts Options) (*intern.PkgInfo, error) {
	s, err := Parse(str, opts)
	if err != nil {
		return nil, err
	}
	if err := s.CheckAmbiguous(arena); err != nil {
		return nil, err
	}
	return s.Find(arena)
}

// FindPkg builds a specifier from an already-split name/architecture
// pair and resolves it (pkg_spec_find_pkg).
func FindPkg(arena *intern.Arena, name, archName string, opts Options) (*intern.PkgInfo, error) {
	s, err := New(name, archName, opts)
	if err != nil {
		return nil, err
	}
	if err := s.CheckAmbiguous(arena); err != nil {
		return nil, err
	}
	return s.Find(arena)
}
