package dpkgdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/etnz/dpkgdb/intern"
	"github.com/etnz/dpkgdb/trigger"
)

func seedInstalled(t *testing.T, db *Database, name string) *intern.PkgInfo {
	t.Helper()
	pkg := db.Arena.FindPkg(name, "amd64")
	pkg.Want = intern.WantInstall
	pkg.Installed.Version.Upstream = "1.0"
	db.Arena.SetStatus(pkg, intern.StatInstalled)
	return pkg
}

func TestActivateFileTriggerWithAwait(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, "amd64", true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := seedInstalled(t, db, "pkg-a")
	b := seedInstalled(t, db, "pkg-b")

	if err := db.TriggerFiles.Add("/usr/share/help", db.Arena.Pkgset(a.Set), trigger.TrigAwait); err != nil {
		t.Fatalf("Add interest: %v", err)
	}

	if err := db.ActivateFileTrigger("/usr/share/help/foo", b); err != nil {
		t.Fatalf("ActivateFileTrigger: %v", err)
	}

	if a.Status != intern.StatTriggersPending {
		t.Errorf("a.Status = %v, want triggers-pending", a.Status)
	}
	if len(a.TrigPend) != 1 || a.TrigPend[0] != "/usr/share/help" {
		t.Errorf("a.TrigPend = %v", a.TrigPend)
	}
	if b.Status != intern.StatTriggersAwaited {
		t.Errorf("b.Status = %v, want triggers-awaited", b.Status)
	}
	if len(b.TrigAwaited) != 1 || b.TrigAwaited[0] != "pkg-a" {
		t.Errorf("b.TrigAwaited = %v", b.TrigAwaited)
	}

	if err := db.TriggerUnincorp.Write(); err != nil {
		t.Fatalf("Unincorp write: %v", err)
	}
	out, err := os.ReadFile(filepath.Join(dir, "triggers", "Unincorp"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "/usr/share/help pkg-b") {
		t.Errorf("Unincorp = %q, want a \"/usr/share/help pkg-b\" line", out)
	}

	// Processing completes: a's awaiters are released and b returns to
	// installed.
	db.TriggerProcessed(a, "/usr/share/help")
	if a.Status != intern.StatInstalled {
		t.Errorf("a.Status after processing = %v, want installed", a.Status)
	}
	if b.Status != intern.StatInstalled {
		t.Errorf("b.Status after processing = %v, want installed", b.Status)
	}
	if len(db.TriggerUnincorp.Activations()) != 0 {
		t.Errorf("deferred activation not dropped: %v", db.TriggerUnincorp.Activations())
	}
}

func TestActivateFileTriggerNoAwait(t *testing.T) {
	db, err := Open(t.TempDir(), "amd64", true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	a := seedInstalled(t, db, "pkg-a")
	b := seedInstalled(t, db, "pkg-b")

	if err := db.TriggerFiles.Add("/usr/share/icons", db.Arena.Pkgset(a.Set), trigger.TrigNoAwait); err != nil {
		t.Fatalf("Add interest: %v", err)
	}
	if err := db.ActivateFileTrigger("/usr/share/icons/hicolor/app.png", b); err != nil {
		t.Fatalf("ActivateFileTrigger: %v", err)
	}

	if a.Status != intern.StatTriggersPending {
		t.Errorf("a.Status = %v, want triggers-pending", a.Status)
	}
	if b.Status != intern.StatInstalled {
		t.Errorf("b must not await a noawait interest, got %v", b.Status)
	}
	if len(db.TriggerUnincorp.Activations()) != 0 {
		t.Errorf("noawait activation must not be recorded as deferred")
	}
}

func TestActivateFileTriggerNoMatch(t *testing.T) {
	db, err := Open(t.TempDir(), "amd64", true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b := seedInstalled(t, db, "pkg-b")
	if err := db.ActivateFileTrigger("/nothing/watched/here", b); err != nil {
		t.Fatalf("ActivateFileTrigger with no interests: %v", err)
	}
	if b.Status != intern.StatInstalled {
		t.Errorf("b.Status = %v, want installed", b.Status)
	}
}

func TestActivateNamedTrigger(t *testing.T) {
	db, err := Open(t.TempDir(), "amd64", true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	a := seedInstalled(t, db, "pkg-a")
	b := seedInstalled(t, db, "pkg-b")

	if err := db.ActivateTrigger("ldconfig", a, b); err != nil {
		t.Fatalf("ActivateTrigger: %v", err)
	}
	if a.Status != intern.StatTriggersPending || b.Status != intern.StatTriggersAwaited {
		t.Errorf("statuses = %v/%v", a.Status, b.Status)
	}

	if err := db.ActivateTrigger("bad name", a, b); err == nil {
		t.Errorf("expected a trigger name with a space to be rejected")
	}
}
