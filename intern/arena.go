package intern

import (
	"strings"
	"sync"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/dpkgerr"
)

// Arena is the in-memory package database: the pkgset/pkginfo table and
// the fsys_namenode table, each append-only and keyed by name.
//
// A zero Arena is not usable; construct one with NewArena. The zero
// value of PkgsetID, PkgID and NodeID is reserved as "no entry", so
// index 0 of every backing slice is a padding entry that is never
// returned to callers.
type Arena struct {
	mu sync.Mutex

	sets   []*Pkgset
	byName map[string]PkgsetID // keyed by lower-cased name

	pkgs []*PkgInfo

	nodes  []*Node
	byPath map[string]NodeID
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{
		sets:   []*Pkgset{nil},
		byName: make(map[string]PkgsetID),
		pkgs:   []*PkgInfo{nil},
		nodes:  []*Node{nil},
		byPath: make(map[string]NodeID),
	}
}

// Reset discards every entry, returning the Arena to its post-NewArena
// state. It corresponds to dpkg's pkg_hash_reset/fsys_hash_reset pair.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sets = []*Pkgset{nil}
	a.byName = make(map[string]PkgsetID)
	a.pkgs = []*PkgInfo{nil}
	a.nodes = []*Node{nil}
	a.byPath = make(map[string]NodeID)
}

// Pkgset returns the set identified by id, or nil if id is zero or
// unknown.
func (a *Arena) Pkgset(id PkgsetID) *Pkgset {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(id) <= 0 || int(id) >= len(a.sets) {
		return nil
	}
	return a.sets[id]
}

// Pkg returns the instance identified by id, or nil if id is zero or
// unknown.
func (a *Arena) Pkg(id PkgID) *PkgInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	if int(id) <= 0 || int(id) >= len(a.pkgs) {
		return nil
	}
	return a.pkgs[id]
}

// FindSet returns the package set named name, creating it (with a
// single unclaimed placeholder instance) if it does not yet exist.
// Lookup and the name stored on the returned Pkgset are both
// case-folded per dpkg's package-name comparison rule.
func (a *Arena) FindSet(name string) *Pkgset {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.findSetLocked(name)
}

func (a *Arena) findSetLocked(name string) *Pkgset {
	key := strings.ToLower(name)
	if id, ok := a.byName[key]; ok {
		return a.sets[id]
	}

	id := PkgsetID(len(a.sets))
	set := &Pkgset{ID: id, Name: key}
	a.sets = append(a.sets, set)
	a.byName[key] = id

	placeholder := a.newPkgLocked(id, "")
	set.Instances = append(set.Instances, placeholder.ID)

	return set
}

func (a *Arena) newPkgLocked(set PkgsetID, n arch.Name) *PkgInfo {
	id := PkgID(len(a.pkgs))
	pkg := &PkgInfo{ID: id, Set: set, Arch: n}
	pkg.Installed.Arch = n
	pkg.Available.Arch = n
	a.pkgs = append(a.pkgs, pkg)
	return pkg
}

// FindPkg returns the instance of name for architecture n, creating
// the set and/or the instance as needed. The set's placeholder
// instance is claimed by the first architecture looked up on it,
// matching pkg_hash_find_pkg's reuse of the embedded struct pkginfo.
func (a *Arena) FindPkg(name string, n arch.Name) *PkgInfo {
	a.mu.Lock()
	defer a.mu.Unlock()

	set := a.findSetLocked(name)
	for _, pid := range set.Instances {
		pkg := a.pkgs[pid]
		if pkg.Arch == n {
			return pkg
		}
	}

	placeholder := a.pkgs[set.Instances[0]]
	if placeholder.Arch == "" {
		placeholder.Arch = n
		placeholder.Installed.Arch = n
		placeholder.Available.Arch = n
		return placeholder
	}

	pkg := a.newPkgLocked(set.ID, n)
	set.Instances = append(set.Instances, pkg.ID)
	return pkg
}

// LookupSet returns the set named name, or nil if it has never been
// interned.
func (a *Arena) LookupSet(name string) *Pkgset {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id, ok := a.byName[strings.ToLower(name)]; ok {
		return a.sets[id]
	}
	return nil
}

// SetStatus updates pkg's status, keeping its set's InstalledInstances
// counter consistent (pkg_set_status).
func (a *Arena) SetStatus(pkg *PkgInfo, status Status) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if pkg.Status == status {
		return
	}
	set := a.sets[pkg.Set]
	switch {
	case pkg.Status == StatNotInstalled:
		set.InstalledInstances++
	case status == StatNotInstalled:
		set.InstalledInstances--
	}
	if set.InstalledInstances < 0 {
		dpkgerr.Invariant("negative installed instance count for %q", set.Name)
	}
	pkg.Status = status
}

// GetSingleton returns set's single informative instance: if more than
// one instance is installed it returns nil (ambiguous), otherwise the
// first installed instance, or the set's placeholder if none is
// installed (pkgset_get_singleton).
func (a *Arena) GetSingleton(set *Pkgset) *PkgInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.getSingletonLocked(set)
}

func (a *Arena) getSingletonLocked(set *Pkgset) *PkgInfo {
	if set.InstalledInstances > 1 {
		return nil
	}
	for _, pid := range set.Instances {
		pkg := a.pkgs[pid]
		if pkg.Status > StatNotInstalled {
			return pkg
		}
	}
	return a.pkgs[set.Instances[0]]
}

// FindSingleton looks up name and returns its singleton instance. It
// reports dpkgerr.UnknownPackage if name was never interned, or
// dpkgerr.AmbiguousPackage if more than one architecture instance of
// it is installed.
func (a *Arena) FindSingleton(name string) (*PkgInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	key := strings.ToLower(name)
	id, ok := a.byName[key]
	if !ok {
		return nil, dpkgerr.New(dpkgerr.UnknownPackage, "package %q is not known", name)
	}
	set := a.sets[id]
	pkg := a.getSingletonLocked(set)
	if pkg == nil {
		return nil, dpkgerr.New(dpkgerr.AmbiguousPackage, "package %q has multiple installed architecture instances", name)
	}
	return pkg, nil
}

// CountSets returns the number of interned package sets.
func (a *Arena) CountSets() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sets) - 1
}

// CountPkgs returns the number of interned package instances.
func (a *Arena) CountPkgs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pkgs) - 1
}

// Sets returns every interned package set, in interning order.
func (a *Arena) Sets() []*Pkgset {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Pkgset, 0, len(a.sets)-1)
	for _, s := range a.sets[1:] {
		out = append(out, s)
	}
	return out
}

// Pkgs returns every interned package instance, in interning order.
func (a *Arena) Pkgs() []*PkgInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*PkgInfo, 0, len(a.pkgs)-1)
	for _, p := range a.pkgs[1:] {
		out = append(out, p)
	}
	return out
}
