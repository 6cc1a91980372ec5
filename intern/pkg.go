package intern

import (
	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/version"
)

// PkgsetID identifies a Pkgset within an Arena. The zero value is never
// assigned to a real entry, so it doubles as an "unset" sentinel.
type PkgsetID int32

// PkgID identifies a single architecture instance of a package within
// an Arena.
type PkgID int32

// Want is the selection state recorded by the administrator (the
// "Status:" field's first token).
type Want int

const (
	WantUnknown Want = iota
	WantInstall
	WantHold
	WantDeinstall
	WantPurge
)

func (w Want) String() string {
	switch w {
	case WantInstall:
		return "install"
	case WantHold:
		return "hold"
	case WantDeinstall:
		return "deinstall"
	case WantPurge:
		return "purge"
	default:
		return "unknown"
	}
}

// Status is the package's installation status (the "Status:" field's
// third token).
type Status int

const (
	StatNotInstalled Status = iota
	StatConfigFiles
	StatHalfInstalled
	StatUnpacked
	StatHalfConfigured
	StatTriggersAwaited
	StatTriggersPending
	StatInstalled
)

func (s Status) String() string {
	switch s {
	case StatConfigFiles:
		return "config-files"
	case StatHalfInstalled:
		return "half-installed"
	case StatUnpacked:
		return "unpacked"
	case StatHalfConfigured:
		return "half-configured"
	case StatTriggersAwaited:
		return "triggers-awaited"
	case StatTriggersPending:
		return "triggers-pending"
	case StatInstalled:
		return "installed"
	default:
		return "not-installed"
	}
}

// EFlag holds the error flags recorded alongside Status (the "Status:"
// field's second token).
type EFlag int

const (
	EFlagOk        EFlag = 0
	EFlagReinstreq EFlag = 1 << 0
)

// Priority is the package's archive priority.
type Priority int

const (
	PriUnknown Priority = iota
	PriRequired
	PriImportant
	PriStandard
	PriOptional
	PriExtra
	PriOther
)

// Pkgset groups every architecture instance of a single package name.
// It corresponds to one row of dpkg's struct pkgset (pkg.c), minus the
// pointer-chasing: instances are held by PkgID rather than by an
// intrusive linked list.
type Pkgset struct {
	ID                 PkgsetID
	Name               string
	Instances          []PkgID
	InstalledInstances int
}

// PkgInfo is a single architecture instance of a package: one row of
// struct pkginfo. Arch holds the claimed architecture, or the empty
// Name while the instance is still the set's unclaimed placeholder
// (see Arena.FindPkg).
type PkgInfo struct {
	ID     PkgID
	Set    PkgsetID
	Arch   arch.Name
	Want   Want
	EFlag  EFlag
	Status Status

	Priority      Priority
	OtherPriority string
	Section       string

	ConfigVersion version.Version

	Installed Pkgbin
	Available Pkgbin

	// Files lists the fsys nodes this instance owns, populated by the
	// code that loads the status database's per-package file lists.
	Files []NodeID

	// TrigPend lists trigger names this instance has pending activation
	// for itself. TrigAwaited lists the names of the packages whose
	// trigger processing this instance is waiting on.
	TrigPend    []string
	TrigAwaited []string
}

// Pkgbin is the architecture- and version-specific half of a package
// instance, duplicated for the installed and available views (dpkg's
// struct pkgbin).
type Pkgbin struct {
	Arch      arch.Name
	MultiArch arch.MultiArch
	Essential bool

	Version version.Version

	Description   string
	Maintainer    string
	Source        string
	InstalledSize string
	Bugs          string
	Origin        string

	Conffiles []Conffile
	Depends   []Dependency

	// Arbitrary preserves every control field this package carries that
	// the core does not otherwise model, keyed by field name exactly as
	// it appeared (case preserved, first occurrence wins on duplicates).
	Arbitrary map[string]string
}

// Conffile is one entry of a pkgbin's "Conffiles:" field.
type Conffile struct {
	Path     string
	Hash     string
	Obsolete bool
}

// Dependency is one dependency field entry: a single kind (Depends,
// Conflicts, ...) and its alternatives, "|"-separated in the control
// file.
type Dependency struct {
	Kind         arch.DependencyKind
	Alternatives []Possibility
}

// Possibility is a single alternative of a Dependency: a package name,
// optional architecture qualifier, and optional version constraint.
type Possibility struct {
	Name string
	Arch arch.Name

	Rel        version.Relation
	Version    version.Version
	HasVersion bool
}
