package trigger

import (
	"testing"

	"github.com/etnz/dpkgdb/intern"
)

func TestNotePendTransitionsStatus(t *testing.T) {
	a := intern.NewArena()
	e := NewEngine(a)

	set := a.FindSet("foo")
	pkg := a.Pkg(set.Instances[0])
	a.SetStatus(pkg, intern.StatInstalled)

	if !e.NotePend(pkg, "interest-changed") {
		t.Fatalf("expected first NotePend to succeed")
	}
	if pkg.Status != intern.StatTriggersPending {
		t.Errorf("status = %v, want triggers-pending", pkg.Status)
	}
	if e.NotePend(pkg, "interest-changed") {
		t.Errorf("NotePend should be idempotent")
	}
}

func TestNoteAwAndClearAwaiters(t *testing.T) {
	a := intern.NewArena()
	e := NewEngine(a)

	pendSet := a.FindSet("pend-pkg")
	pend := a.Pkg(pendSet.Instances[0])
	a.SetStatus(pend, intern.StatInstalled)

	awSet := a.FindSet("aw-pkg")
	aw := a.Pkg(awSet.Instances[0])
	a.SetStatus(aw, intern.StatInstalled)

	e.NotePend(pend, "some-trigger")
	if !e.NoteAw(pend, aw) {
		t.Fatalf("expected first NoteAw to succeed")
	}
	if aw.Status != intern.StatTriggersAwaited {
		t.Errorf("aw.Status = %v, want triggers-awaited", aw.Status)
	}
	if e.NoteAw(pend, aw) {
		t.Errorf("NoteAw should be idempotent")
	}

	// pend still has a pending trigger: clearing now must do nothing.
	e.ClearAwaiters(pend)
	if aw.Status != intern.StatTriggersAwaited {
		t.Fatalf("aw cleared too early: %v", aw.Status)
	}

	pend.TrigPend = nil
	e.ClearAwaiters(pend)
	if aw.Status != intern.StatInstalled {
		t.Errorf("aw.Status = %v, want installed after clear", aw.Status)
	}
	if len(aw.TrigAwaited) != 0 {
		t.Errorf("expected TrigAwaited to be emptied, got %v", aw.TrigAwaited)
	}
}

func TestClearAwaitersLeavesPendingAwaiterPending(t *testing.T) {
	a := intern.NewArena()
	e := NewEngine(a)

	pendSet := a.FindSet("pend-pkg")
	pend := a.Pkg(pendSet.Instances[0])
	a.SetStatus(pend, intern.StatInstalled)

	awSet := a.FindSet("aw-pkg")
	aw := a.Pkg(awSet.Instances[0])
	a.SetStatus(aw, intern.StatInstalled)

	e.NotePend(pend, "some-trigger")
	e.NoteAw(pend, aw)
	e.NotePend(aw, "other-trigger")

	pend.TrigPend = nil
	e.ClearAwaiters(pend)

	if aw.Status != intern.StatTriggersPending {
		t.Errorf("aw.Status = %v, want triggers-pending (still has its own trigger)", aw.Status)
	}
}
