package specifier

import (
	"testing"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/intern"
)

func TestParseSplitsNameAndArch(t *testing.T) {
	s, err := Parse("foo:amd64", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "foo" || s.Arch != "amd64" {
		t.Fatalf("got name=%q arch=%q", s.Name, s.Arch)
	}
}

func TestParseWithoutArch(t *testing.T) {
	s, err := Parse("foo", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Name != "foo" || s.Arch != "" {
		t.Fatalf("got name=%q arch=%q", s.Name, s.Arch)
	}
}

func TestParseRejectsIllegalNameWithoutPatterns(t *testing.T) {
	if _, err := Parse("foo*", Options{Patterns: false}); err == nil {
		t.Fatalf("expected a literal '*' to be rejected when patterns are disabled")
	}
}

func TestParseDetectsNamePattern(t *testing.T) {
	s, err := Parse("foo*", Options{Patterns: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.NamePattern {
		t.Fatalf("expected foo* to be detected as a pattern")
	}
	if !s.MatchName("foobar") || s.MatchName("barfoo") {
		t.Fatalf("pattern match behaved unexpectedly")
	}
}

func TestParseDetectsArchPattern(t *testing.T) {
	s, err := Parse("foo:amd*", Options{Patterns: true})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.ArchPattern {
		t.Fatalf("expected amd* to be detected as an arch pattern")
	}
	if !s.MatchArch("amd64", 1) || s.MatchArch("arm64", 1) {
		t.Fatalf("arch pattern match behaved unexpectedly")
	}
}

func TestMatchArchDefaultSingleRequiresAtMostOneInstance(t *testing.T) {
	s, err := Parse("foo", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.MatchArch("amd64", 1) {
		t.Fatalf("expected a single installed instance to match")
	}
	if s.MatchArch("amd64", 2) {
		t.Fatalf("expected more than one installed instance to fail to match under ArchDefSingle")
	}
}

func TestMatchArchDefaultWildcardAlwaysMatches(t *testing.T) {
	s, err := Parse("foo", Options{ArchDefault: ArchDefWildcard})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.MatchArch("amd64", 3) {
		t.Fatalf("expected ArchDefWildcard to match regardless of instance count")
	}
}

func TestMatchArchExplicit(t *testing.T) {
	s, err := Parse("foo:amd64", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !s.MatchArch("amd64", 1) || s.MatchArch("arm64", 1) {
		t.Fatalf("explicit architecture match behaved unexpectedly")
	}
}

func TestCheckAmbiguousRejectsMultiInstanceSet(t *testing.T) {
	a := intern.NewArena()
	amd := a.FindPkg("foo", "amd64")
	arm := a.FindPkg("foo", "arm64")
	a.SetStatus(amd, intern.StatInstalled)
	a.SetStatus(arm, intern.StatInstalled)

	s, err := Parse("foo", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := s.CheckAmbiguous(a); err == nil {
		t.Fatalf("expected an ambiguous multi-instance set to be rejected")
	}
}

func TestCheckAmbiguousAllowsExplicitArch(t *testing.T) {
	a := intern.NewArena()
	amd := a.FindPkg("foo", "amd64")
	arm := a.FindPkg("foo", "arm64")
	a.SetStatus(amd, intern.StatInstalled)
	a.SetStatus(arm, intern.StatInstalled)

	s, err := Parse("foo:amd64", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := s.CheckAmbiguous(a); err != nil {
		t.Fatalf("explicit architecture should bypass the ambiguity check: %v", err)
	}
}

func TestFindResolvesSingletonByDefault(t *testing.T) {
	a := intern.NewArena()
	pkg := a.FindPkg("foo", "amd64")
	a.SetStatus(pkg, intern.StatInstalled)

	s, err := Parse("foo", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := s.Find(a)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got != pkg {
		t.Fatalf("Find returned a different instance")
	}
}

func TestFindUnknownPackageErrors(t *testing.T) {
	a := intern.NewArena()
	s, err := Parse("nosuchpkg", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := s.Find(a); err == nil {
		t.Fatalf("expected an unknown package to error")
	}
}

func TestFindWithArchCreatesInstance(t *testing.T) {
	a := intern.NewArena()
	s, err := Parse("foo:amd64", Options{})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := s.Find(a)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if got.Arch != arch.Name("amd64") {
		t.Fatalf("got arch %q", got.Arch)
	}
}

func TestIteratePatternCoversMultipleSets(t *testing.T) {
	a := intern.NewArena()
	foo := a.FindPkg("foo", "amd64")
	bar := a.FindPkg("bar", "amd64")
	a.SetStatus(foo, intern.StatInstalled)
	a.SetStatus(bar, intern.StatInstalled)
	a.FindSet("baz") // unclaimed set, should not appear

	s, err := Parse("*", Options{Patterns: true, ArchDefault: ArchDefWildcard})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := s.Iterate(a)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(got), got)
	}
}

func TestIterateLiteralNameSingleSet(t *testing.T) {
	a := intern.NewArena()
	pkg := a.FindPkg("foo", "amd64")
	a.SetStatus(pkg, intern.StatInstalled)

	s, err := Parse("foo", Options{ArchDefault: ArchDefWildcard})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := s.Iterate(a)
	if len(got) != 1 || got[0] != pkg {
		t.Fatalf("unexpected iterate result: %+v", got)
	}
}

func TestParsePkgConvenience(t *testing.T) {
	a := intern.NewArena()
	pkg := a.FindPkg("foo", "amd64")
	a.SetStatus(pkg, intern.StatInstalled)

	got, err := ParsePkg(a, "foo", Options{ArchDefault: ArchDefSingle})
	if err != nil {
		t.Fatalf("ParsePkg: %v", err)
	}
	if got != pkg {
		t.Fatalf("ParsePkg returned a different instance")
	}
}
