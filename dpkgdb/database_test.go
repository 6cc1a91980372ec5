package dpkgdb

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenAndLoadEmptyAdminDir(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, "amd64", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if db.Arena.CountSets() != 0 {
		t.Fatalf("expected an empty arena, got %d sets", db.Arena.CountSets())
	}
}

func TestDatabaseSharesArenaAcrossSubsystems(t *testing.T) {
	dir := t.TempDir()
	status := "Package: foo\nStatus: install ok installed\nVersion: 1.0\nArchitecture: amd64\n\n"
	if err := os.WriteFile(filepath.Join(dir, "status"), []byte(status), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "diversions"),
		[]byte("/usr/bin/foo\n/usr/bin/foo.real\nfoo\n"), 0644); err != nil {
		t.Fatal(err)
	}

	db, err := Open(dir, "amd64", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	pkg, err := db.Arena.FindSingleton("foo")
	if err != nil {
		t.Fatalf("FindSingleton: %v", err)
	}
	if pkg.Status.String() != "installed" {
		t.Errorf("status = %v, want installed", pkg.Status)
	}

	diversions := db.Diversions.Records()
	if len(diversions) != 1 {
		t.Fatalf("expected one diversion record, got %d", len(diversions))
	}
	node := db.Arena.Node(diversions[0].From)
	if node.Path != "/usr/bin/foo" {
		t.Errorf("diversion From path = %q, want /usr/bin/foo", node.Path)
	}
	if diversions[0].Package == nil || diversions[0].Package.Name != "foo" {
		t.Errorf("unexpected diversion package: %+v", diversions[0].Package)
	}
}

func TestLockRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, "amd64", false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := db.TryLock(); err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if err := db.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestAdminDirFromEnv(t *testing.T) {
	t.Setenv("DPKG_ADMINDIR", "")
	if got := AdminDirFromEnv(); got != DefaultAdminDir {
		t.Errorf("got %q, want %q", got, DefaultAdminDir)
	}

	t.Setenv("DPKG_ADMINDIR", "/custom/admin")
	if got := AdminDirFromEnv(); got != "/custom/admin" {
		t.Errorf("got %q, want /custom/admin", got)
	}
}
