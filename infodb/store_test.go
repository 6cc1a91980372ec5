package infodb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenWithoutFormatIsSingleArch(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.MultiArch() {
		t.Fatalf("expected single-arch layout without info/format")
	}
	if got := s.Base("foo", "amd64"); got != "foo" {
		t.Errorf("Base = %q, want %q", got, "foo")
	}
}

func TestOpenWithFormatOneIsMultiArch(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "info"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "info", "format"), []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !s.MultiArch() {
		t.Fatalf("expected multi-arch layout with info/format = 1")
	}
	if got := s.Base("foo", "amd64"); got != "foo:amd64" {
		t.Errorf("Base = %q, want %q", got, "foo:amd64")
	}
}

func TestOpenRejectsFutureFormat(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "info"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "info", "format"), []byte("2\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir); err == nil {
		t.Fatalf("expected Open to reject an unsupported info/format version")
	}
}

func TestListRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []string{"/usr/bin/foo", "/usr/share/doc/foo/copyright"}
	if err := s.WriteList("foo", want); err != nil {
		t.Fatalf("WriteList: %v", err)
	}

	got, err := s.ReadList("foo")
	if err != nil {
		t.Fatalf("ReadList: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestMd5sumsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	digests := map[string]string{
		"/usr/bin/foo": "d41d8cd98f00b204e9800998ecf8427e",
	}
	if err := s.WriteMd5sums("foo", digests); err != nil {
		t.Fatalf("WriteMd5sums: %v", err)
	}

	got, err := s.ReadMd5sums("foo")
	if err != nil {
		t.Fatalf("ReadMd5sums: %v", err)
	}
	if got["/usr/bin/foo"] != digests["/usr/bin/foo"] {
		t.Errorf("digest mismatch: %+v", got)
	}
}

func TestScriptLifecycle(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok, err := s.ReadScript("foo", ScriptPostinst); err != nil || ok {
		t.Fatalf("expected no postinst script yet, got ok=%v err=%v", ok, err)
	}

	if err := s.WriteScript("foo", ScriptPostinst, "#!/bin/sh\nexit 0\n"); err != nil {
		t.Fatalf("WriteScript: %v", err)
	}
	content, ok, err := s.ReadScript("foo", ScriptPostinst)
	if err != nil || !ok {
		t.Fatalf("expected script present, got ok=%v err=%v", ok, err)
	}
	if content != "#!/bin/sh\nexit 0\n" {
		t.Errorf("script content = %q", content)
	}

	info, err := os.Stat(s.Path("foo", ScriptPostinst))
	if err != nil {
		t.Fatalf("stat script: %v", err)
	}
	if info.Mode()&0111 == 0 {
		t.Errorf("expected script to be executable, mode = %v", info.Mode())
	}

	if err := s.RemoveScript("foo", ScriptPostinst); err != nil {
		t.Fatalf("RemoveScript: %v", err)
	}
	if _, ok, _ := s.ReadScript("foo", ScriptPostinst); ok {
		t.Fatalf("expected script to be gone after RemoveScript")
	}
}
