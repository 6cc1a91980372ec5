package control

import (
	"strings"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
	"github.com/etnz/dpkgdb/version"
)

// ParseDependencyField parses the value of a dependency-family field
// (Depends, Pre-Depends, Recommends, Suggests, Enhances, Conflicts,
// Breaks, Replaces, Provides) into one Dependency per comma-separated
// item, each carrying its "|"-separated alternatives.
func ParseDependencyField(kind arch.DependencyKind, value string) ([]intern.Dependency, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var deps []intern.Dependency
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		var alts []intern.Possibility
		for _, alt := range strings.Split(item, "|") {
			p, err := parsePossibility(alt)
			if err != nil {
				return nil, dpkgerr.Wrap(err, "parsing %s field", kind)
			}
			alts = append(alts, p)
		}
		deps = append(deps, intern.Dependency{Kind: kind, Alternatives: alts})
	}
	return deps, nil
}

// parsePossibility parses a single alternative: "name[:arch] [(rel
// version)]".
func parsePossibility(alt string) (intern.Possibility, error) {
	alt = strings.TrimSpace(alt)

	namePart := alt
	var constraint string
	if open := strings.IndexByte(alt, '('); open >= 0 {
		closeIdx := strings.LastIndexByte(alt, ')')
		if closeIdx < open {
			return intern.Possibility{}, dpkgerr.New(dpkgerr.ParseError,
				"unbalanced parentheses in dependency %q", alt).WithContext("parsePossibility")
		}
		namePart = strings.TrimSpace(alt[:open])
		constraint = strings.TrimSpace(alt[open+1 : closeIdx])
	}

	name := namePart
	var archQual arch.Name
	if i := strings.IndexByte(namePart, ':'); i >= 0 {
		name = namePart[:i]
		archQual = arch.Name(namePart[i+1:])
	}
	if name == "" {
		return intern.Possibility{}, dpkgerr.New(dpkgerr.ParseError,
			"dependency %q has no package name", alt).WithContext("parsePossibility")
	}

	p := intern.Possibility{Name: name, Arch: archQual}
	if constraint == "" {
		return p, nil
	}

	fields := strings.Fields(constraint)
	if len(fields) != 2 {
		return intern.Possibility{}, dpkgerr.New(dpkgerr.ParseError,
			"malformed version constraint %q in dependency %q", constraint, alt).WithContext("parsePossibility")
	}
	rel, _, err := version.ParseRelation(fields[0])
	if err != nil {
		return intern.Possibility{}, dpkgerr.Wrap(err, "dependency %q", alt)
	}
	v, err := version.Parse(fields[1])
	if err != nil {
		return intern.Possibility{}, dpkgerr.Wrap(err, "dependency %q", alt)
	}
	p.Rel = rel
	p.Version = v
	p.HasVersion = true
	return p, nil
}

// FormatDependencyField renders deps back into a single field value,
// the inverse of ParseDependencyField.
func FormatDependencyField(deps []intern.Dependency) string {
	var items []string
	for _, d := range deps {
		var alts []string
		for _, p := range d.Alternatives {
			s := p.Name
			if p.Arch != "" {
				s += ":" + string(p.Arch)
			}
			if p.HasVersion {
				s += " (" + p.Rel.String() + " " + p.Version.String() + ")"
			}
			alts = append(alts, s)
		}
		items = append(items, strings.Join(alts, " | "))
	}
	return strings.Join(items, ", ")
}
