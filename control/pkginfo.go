package control

import (
	"fmt"
	"sort"
	"strings"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
	"github.com/etnz/dpkgdb/version"
)

// dependencyFields maps the control-file field name (lower-cased) to
// the dependency kind it carries.
var dependencyFields = map[string]arch.DependencyKind{
	"depends":     arch.Depends,
	"pre-depends": arch.PreDepends,
	"recommends":  arch.Recommends,
	"suggests":    arch.Suggests,
	"enhances":    arch.Enhances,
	"conflicts":   arch.Conflicts,
	"breaks":      arch.Breaks,
	"replaces":    arch.Replaces,
	"provides":    arch.Provides,
}

// knownFields lists every field ParsePkgInfo consumes directly; any
// other field is preserved verbatim in Pkgbin.Arbitrary.
var knownFields = func() map[string]bool {
	m := map[string]bool{
		"package": true, "version": true, "architecture": true, "status": true,
		"priority": true, "section": true, "essential": true, "multi-arch": true,
		"maintainer": true, "description": true, "source": true,
		"installed-size": true, "bugs": true, "origin": true, "conffiles": true,
		"config-version": true, "triggers-pending": true, "triggers-awaited": true,
	}
	for f := range dependencyFields {
		m[f] = true
	}
	return m
}()

// ParsePkgInfo builds a *intern.PkgInfo from a status-file stanza,
// interning it (and its architecture) into a. The returned PkgInfo's
// Installed and Available views are set identically, matching the
// status file's single-pkgbin-per-stanza layout.
func ParsePkgInfo(st *Stanza, a *intern.Arena, reg *arch.Registry) (*intern.PkgInfo, error) {
	name, ok := st.Get("Package")
	if !ok {
		return nil, dpkgerr.New(dpkgerr.ParseError, "stanza has no Package field").WithContext("ParsePkgInfo")
	}
	archStr, _ := st.Get("Architecture")
	n := arch.Name(archStr)
	if n == "" {
		n = reg.Native()
	}
	reg.Add(n)

	pkg := a.FindPkg(name, n)

	if statusStr, ok := st.Get("Status"); ok {
		tok := strings.Fields(statusStr)
		if len(tok) != 3 {
			return nil, dpkgerr.New(dpkgerr.ParseError, "malformed Status field %q for %q", statusStr, name).
				WithContext("ParsePkgInfo")
		}
		want, err := intern.ParseWant(tok[0])
		if err != nil {
			return nil, dpkgerr.Wrap(err, "package %q", name)
		}
		eflag, err := intern.ParseEFlag(tok[1])
		if err != nil {
			return nil, dpkgerr.Wrap(err, "package %q", name)
		}
		status, err := intern.ParseStatus(tok[2])
		if err != nil {
			return nil, dpkgerr.Wrap(err, "package %q", name)
		}
		pkg.Want = want
		pkg.EFlag = eflag
		a.SetStatus(pkg, status)
	}

	if p, ok := st.Get("Priority"); ok {
		pkg.Priority = intern.ParsePriority(p)
		if pkg.Priority == intern.PriOther {
			pkg.OtherPriority = p
		}
	}
	if s, ok := st.Get("Section"); ok {
		pkg.Section = s
	}
	if cv, ok := st.Get("Config-Version"); ok {
		v, err := version.Parse(cv)
		if err != nil {
			return nil, dpkgerr.Wrap(err, "package %q Config-Version", name)
		}
		pkg.ConfigVersion = v
	}
	if tp, ok := st.Get("Triggers-Pending"); ok {
		pkg.TrigPend = splitFields(tp)
	}
	if ta, ok := st.Get("Triggers-Awaited"); ok {
		pkg.TrigAwaited = splitFields(ta)
	}

	bin, err := parsePkgbin(st, n)
	if err != nil {
		return nil, dpkgerr.Wrap(err, "package %q", name)
	}
	pkg.Installed = bin
	pkg.Available = bin

	return pkg, nil
}

func splitFields(s string) []string {
	f := strings.Fields(s)
	if len(f) == 0 {
		return nil
	}
	return f
}

func parsePkgbin(st *Stanza, n arch.Name) (intern.Pkgbin, error) {
	var bin intern.Pkgbin
	bin.Arch = n
	bin.Arbitrary = make(map[string]string)

	if v, ok := st.Get("Version"); ok {
		ver, err := version.Parse(v)
		if err != nil {
			return bin, dpkgerr.Wrap(err, "Version field")
		}
		bin.Version = ver
	}
	if ma, ok := st.Get("Multi-Arch"); ok {
		bin.MultiArch = arch.ParseMultiArch(ma)
	}
	if ess, ok := st.Get("Essential"); ok {
		bin.Essential = ess == "yes"
	}
	if d, ok := st.Get("Maintainer"); ok {
		bin.Maintainer = d
	}
	if d, ok := st.Get("Description"); ok {
		bin.Description = d
	}
	if d, ok := st.Get("Source"); ok {
		bin.Source = d
	}
	if d, ok := st.Get("Installed-Size"); ok {
		bin.InstalledSize = d
	}
	if d, ok := st.Get("Bugs"); ok {
		bin.Bugs = d
	}
	if d, ok := st.Get("Origin"); ok {
		bin.Origin = d
	}
	if c, ok := st.Get("Conffiles"); ok {
		cf, err := ParseConffiles(c)
		if err != nil {
			return bin, err
		}
		bin.Conffiles = cf
	}

	for _, kind := range dependencyFieldOrder {
		v, ok := st.Get(kind.String())
		if !ok {
			continue
		}
		deps, err := ParseDependencyField(kind, v)
		if err != nil {
			return bin, err
		}
		bin.Depends = append(bin.Depends, deps...)
	}

	for _, f := range st.Fields() {
		if knownFields[strings.ToLower(f.Name)] {
			continue
		}
		if _, dup := bin.Arbitrary[f.Name]; !dup {
			bin.Arbitrary[f.Name] = f.Value
		}
	}

	return bin, nil
}

// ParseConffiles parses a "Conffiles:" field value: one "path hash"
// pair per line, with an optional trailing "obsolete" marker.
func ParseConffiles(value string) ([]intern.Conffile, error) {
	var out []intern.Conffile
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, dpkgerr.New(dpkgerr.ParseError, "malformed Conffiles entry %q", line).
				WithContext("ParseConffiles")
		}
		cf := intern.Conffile{Path: fields[0], Hash: fields[1]}
		if len(fields) >= 3 && fields[2] == "obsolete" {
			cf.Obsolete = true
		}
		out = append(out, cf)
	}
	return out, nil
}

// FormatConffiles is the inverse of ParseConffiles.
func FormatConffiles(cf []intern.Conffile) string {
	var b strings.Builder
	for i, c := range cf {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s", c.Path, c.Hash)
		if c.Obsolete {
			b.WriteString(" obsolete")
		}
	}
	return b.String()
}

// FormatPkgInfo renders pkg's installed view back into a Stanza, the
// inverse of ParsePkgInfo. Formatting is a semantic, not byte-exact,
// inverse: arbitrary fields round-trip, but field order follows this
// function rather than the original file.
func FormatPkgInfo(set *intern.Pkgset, pkg *intern.PkgInfo) *Stanza {
	st := NewStanza()
	st.Set("Package", set.Name)
	if pkg.Installed.Arch != "" {
		st.Set("Architecture", string(pkg.Installed.Arch))
	}
	st.Set("Status", fmt.Sprintf("%s %s %s", pkg.Want, pkg.EFlag, pkg.Status))
	if pkg.Priority != intern.PriUnknown {
		st.Set("Priority", pkg.Priority.String())
	}
	if pkg.Section != "" {
		st.Set("Section", pkg.Section)
	}
	bin := pkg.Installed
	if !bin.Version.Equal(version.Version{}) {
		st.Set("Version", bin.Version.String())
	}
	if bin.MultiArch != arch.No {
		st.Set("Multi-Arch", bin.MultiArch.String())
	}
	if bin.Essential {
		st.Set("Essential", "yes")
	}
	if bin.Maintainer != "" {
		st.Set("Maintainer", bin.Maintainer)
	}
	if bin.Source != "" {
		st.Set("Source", bin.Source)
	}
	if bin.InstalledSize != "" {
		st.Set("Installed-Size", bin.InstalledSize)
	}
	if bin.Origin != "" {
		st.Set("Origin", bin.Origin)
	}
	if bin.Bugs != "" {
		st.Set("Bugs", bin.Bugs)
	}
	if bin.Description != "" {
		st.Set("Description", bin.Description)
	}
	byKind := map[arch.DependencyKind][]intern.Dependency{}
	for _, d := range bin.Depends {
		byKind[d.Kind] = append(byKind[d.Kind], d)
	}
	for _, kind := range dependencyFieldOrder {
		if deps, ok := byKind[kind]; ok {
			st.Set(kind.String(), FormatDependencyField(deps))
		}
	}
	if len(bin.Conffiles) > 0 {
		st.Set("Conffiles", FormatConffiles(bin.Conffiles))
	}
	if !pkg.ConfigVersion.Equal(version.Version{}) {
		st.Set("Config-Version", pkg.ConfigVersion.String())
	}
	if len(pkg.TrigPend) > 0 {
		st.Set("Triggers-Pending", strings.Join(pkg.TrigPend, " "))
	}
	if len(pkg.TrigAwaited) > 0 {
		st.Set("Triggers-Awaited", strings.Join(pkg.TrigAwaited, " "))
	}
	names := make([]string, 0, len(bin.Arbitrary))
	for name := range bin.Arbitrary {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st.Set(name, bin.Arbitrary[name])
	}
	return st
}

// dependencyFieldOrder fixes the serialization order of the dependency
// family, matching the canonical field order dpkg's writedb emits.
var dependencyFieldOrder = []arch.DependencyKind{
	arch.Provides, arch.PreDepends, arch.Depends, arch.Recommends,
	arch.Suggests, arch.Enhances, arch.Conflicts, arch.Breaks, arch.Replaces,
}
