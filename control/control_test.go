package control

import (
	"strings"
	"testing"

	"github.com/etnz/dpkgdb/arch"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

func TestParseStanzasBasic(t *testing.T) {
	in := "Package: foo\nVersion: 1.0-1\nDescription: a\n longer\n .\n description\n\n" +
		"Package: bar\nVersion: 2.0\n"
	stanzas, err := ParseStanzas(strings.NewReader(in), "test")
	if err != nil {
		t.Fatalf("ParseStanzas: %v", err)
	}
	if len(stanzas) != 2 {
		t.Fatalf("got %d stanzas, want 2", len(stanzas))
	}
	if p, _ := stanzas[0].Get("package"); p != "foo" {
		t.Errorf("Get is not case-insensitive: got %q", p)
	}
	desc, _ := stanzas[0].Get("Description")
	want := "a\nlonger\n\ndescription"
	if desc != want {
		t.Errorf("Description = %q, want %q", desc, want)
	}
}

func TestParseStanzasCRLFAndCtrlZ(t *testing.T) {
	in := "Package: foo\r\nVersion: 1.0\r\n\x1aJUNK AFTER EOF MARKER"
	stanzas, err := ParseStanzas(strings.NewReader(in), "test")
	if err != nil {
		t.Fatalf("ParseStanzas: %v", err)
	}
	if len(stanzas) != 1 {
		t.Fatalf("got %d stanzas, want 1", len(stanzas))
	}
	if v, _ := stanzas[0].Get("Version"); v != "1.0" {
		t.Errorf("Version = %q", v)
	}
}

func TestParseStanzasDuplicateField(t *testing.T) {
	in := "Package: foo\nPackage: bar\n"
	_, err := ParseStanzas(strings.NewReader(in), "test")
	if !dpkgerr.Has(err, dpkgerr.ParseError) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseStanzasContinuationWithoutField(t *testing.T) {
	in := " stray continuation\n"
	_, err := ParseStanzas(strings.NewReader(in), "test")
	if !dpkgerr.Has(err, dpkgerr.ParseError) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestParseDependencyField(t *testing.T) {
	deps, err := ParseDependencyField(arch.Depends, "libc6 (>= 2.17), foo:amd64 | bar (<< 2.0)")
	if err != nil {
		t.Fatalf("ParseDependencyField: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deps, want 2", len(deps))
	}
	if deps[0].Alternatives[0].Name != "libc6" || !deps[0].Alternatives[0].HasVersion {
		t.Errorf("first dep = %+v", deps[0])
	}
	if len(deps[1].Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(deps[1].Alternatives))
	}
	if deps[1].Alternatives[0].Arch != "amd64" {
		t.Errorf("arch qualifier not parsed: %+v", deps[1].Alternatives[0])
	}
	if deps[1].Alternatives[1].Rel.String() != "<<" {
		t.Errorf("relation not parsed: %+v", deps[1].Alternatives[1])
	}

	back := FormatDependencyField(deps)
	reparsed, err := ParseDependencyField(arch.Depends, back)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(reparsed) != len(deps) {
		t.Fatalf("round trip changed dependency count: %q -> %q", back, back)
	}
}

func TestParseDependencyFieldDeprecatedAlias(t *testing.T) {
	deps, err := ParseDependencyField(arch.Depends, "foo (< 1.0)")
	if err != nil {
		t.Fatalf("ParseDependencyField: %v", err)
	}
	if deps[0].Alternatives[0].Rel.String() != "<=" {
		t.Errorf("deprecated '<' should map to Le, got %v", deps[0].Alternatives[0].Rel)
	}
}

func TestParseConffiles(t *testing.T) {
	cf, err := ParseConffiles("/etc/foo.conf deadbeefdeadbeefdeadbeefdeadbeef\n/etc/bar.conf 0123456789abcdef0123456789abcdef obsolete")
	if err != nil {
		t.Fatalf("ParseConffiles: %v", err)
	}
	if len(cf) != 2 || cf[1].Obsolete != true || cf[0].Obsolete != false {
		t.Fatalf("unexpected conffiles: %+v", cf)
	}
}

func TestParsePkgInfoRoundTrip(t *testing.T) {
	in := "Package: foo\n" +
		"Status: install ok installed\n" +
		"Priority: optional\n" +
		"Architecture: amd64\n" +
		"Version: 1.0-1\n" +
		"Depends: libc6 (>= 2.17)\n" +
		"X-Custom-Field: hello\n"

	stanzas, err := ParseStanzas(strings.NewReader(in), "status")
	if err != nil {
		t.Fatalf("ParseStanzas: %v", err)
	}

	a := intern.NewArena()
	reg := arch.NewRegistry("amd64")
	pkg, err := ParsePkgInfo(stanzas[0], a, reg)
	if err != nil {
		t.Fatalf("ParsePkgInfo: %v", err)
	}
	if pkg.Status != intern.StatInstalled || pkg.Want != intern.WantInstall {
		t.Fatalf("unexpected status/want: %v/%v", pkg.Status, pkg.Want)
	}
	if pkg.Installed.Version.String() != "1.0-1" {
		t.Errorf("version = %q", pkg.Installed.Version.String())
	}
	if got := pkg.Installed.Arbitrary["X-Custom-Field"]; got != "hello" {
		t.Errorf("arbitrary field lost: %q", got)
	}

	set := a.Pkgset(pkg.Set)
	out := FormatPkgInfo(set, pkg)
	var b strings.Builder
	if err := out.Write(&b); err != nil {
		t.Fatalf("Write: %v", err)
	}

	restanzas, err := ParseStanzas(strings.NewReader(b.String()), "roundtrip")
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	a2 := intern.NewArena()
	reg2 := arch.NewRegistry("amd64")
	pkg2, err := ParsePkgInfo(restanzas[0], a2, reg2)
	if err != nil {
		t.Fatalf("ParsePkgInfo reparse: %v", err)
	}
	if pkg2.Status != pkg.Status || pkg2.Want != pkg.Want {
		t.Errorf("status/want did not round trip")
	}
	if !pkg2.Installed.Version.Equal(pkg.Installed.Version) {
		t.Errorf("version did not round trip")
	}
	if pkg2.Installed.Arbitrary["X-Custom-Field"] != "hello" {
		t.Errorf("arbitrary field did not round trip")
	}
}

func TestFormatPkgInfoIsDeterministic(t *testing.T) {
	in := "Package: foo\n" +
		"Status: install ok installed\n" +
		"Architecture: amd64\n" +
		"Version: 1.0\n" +
		"Origin: debian\n" +
		"Bugs: https://bugs.debian.org\n" +
		"Depends: libc6\n" +
		"Conflicts: foo-legacy\n" +
		"Provides: foo-api\n" +
		"X-Zeta: z\n" +
		"X-Alpha: a\n"

	stanzas, err := ParseStanzas(strings.NewReader(in), "status")
	if err != nil {
		t.Fatalf("ParseStanzas: %v", err)
	}
	a := intern.NewArena()
	reg := arch.NewRegistry("amd64")
	pkg, err := ParsePkgInfo(stanzas[0], a, reg)
	if err != nil {
		t.Fatalf("ParsePkgInfo: %v", err)
	}
	set := a.Pkgset(pkg.Set)

	render := func() string {
		var b strings.Builder
		if err := FormatPkgInfo(set, pkg).Write(&b); err != nil {
			t.Fatalf("Write: %v", err)
		}
		return b.String()
	}

	first := render()
	for i := 0; i < 16; i++ {
		if got := render(); got != first {
			t.Fatalf("serialization is not stable:\n%s\nvs\n%s", first, got)
		}
	}
	for _, want := range []string{"Origin: debian", "Bugs: https://bugs.debian.org",
		"Provides: foo-api", "Conflicts: foo-legacy"} {
		if !strings.Contains(first, want) {
			t.Errorf("output missing %q:\n%s", want, first)
		}
	}
	if strings.Index(first, "X-Alpha") > strings.Index(first, "X-Zeta") {
		t.Errorf("arbitrary fields not sorted:\n%s", first)
	}
}
