package trigger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/etnz/dpkgdb/intern"
)

func TestFileStoreLoadParsesDefaultAndNoAwait(t *testing.T) {
	dir := t.TempDir()
	content := "/usr/share/mime/packages foo\n/usr/share/applications bar/noawait\n"
	if err := os.WriteFile(filepath.Join(dir, "File"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	a := intern.NewArena()
	s := NewFileStore(dir, a)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	mime := s.Interested("/usr/share/mime/packages")
	if len(mime) != 1 || mime[0].Pkg.Name != "foo" || mime[0].Policy != TrigAwait {
		t.Fatalf("unexpected mime interests: %+v", mime)
	}

	apps := s.Interested("/usr/share/applications")
	if len(apps) != 1 || apps[0].Pkg.Name != "bar" || apps[0].Policy != TrigNoAwait {
		t.Fatalf("unexpected app interests: %+v", apps)
	}
}

func TestFileStoreAddRemoveWrite(t *testing.T) {
	dir := t.TempDir()
	a := intern.NewArena()
	s := NewFileStore(dir, a)

	pkg := a.FindSet("foo")
	if err := s.Add("/usr/share/mime/packages", pkg, TrigAwait); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	s2 := NewFileStore(dir, a)
	if err := s2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(s2.Interested("/usr/share/mime/packages")) != 1 {
		t.Fatalf("expected interest to survive reload")
	}

	s2.Remove("/usr/share/mime/packages", pkg)
	if len(s2.Interested("/usr/share/mime/packages")) != 0 {
		t.Fatalf("expected Remove to drop the interest")
	}
}

func TestFileStoreMatchingWalksPrefixes(t *testing.T) {
	a := intern.NewArena()
	s := NewFileStore(t.TempDir(), a)

	if err := s.Add("/usr/share/help", a.FindSet("foo"), TrigAwait); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("/usr/share/helpers", a.FindSet("bar"), TrigAwait); err != nil {
		t.Fatal(err)
	}

	got := s.Matching("/usr/share/help/C/index.page")
	if len(got) != 1 || got[0].Pkg.Name != "foo" {
		t.Fatalf("Matching below a watched dir = %+v, want just foo", got)
	}
	if got := s.Matching("/usr/share/help"); len(got) != 1 {
		t.Fatalf("exact match should hit, got %+v", got)
	}
	if got := s.Matching("/usr/share/helpless"); len(got) != 0 {
		t.Fatalf("sibling prefix must not match, got %+v", got)
	}
}

func TestFileStoreRejectsRelativePath(t *testing.T) {
	a := intern.NewArena()
	s := NewFileStore(t.TempDir(), a)
	if err := s.Add("relative/path", a.FindSet("foo"), TrigAwait); err == nil {
		t.Fatalf("expected a relative path to be rejected")
	}
}
