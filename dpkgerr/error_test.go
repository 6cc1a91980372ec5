package dpkgerr

import (
	"errors"
	"testing"
)

func TestHas(t *testing.T) {
	err := New(LockBusy, "admin dir locked")
	if !Has(err, LockBusy) {
		t.Fatalf("expected Has(LockBusy) true")
	}
	if Has(err, IoError) {
		t.Fatalf("expected Has(IoError) false")
	}
	if Has(errors.New("plain"), LockBusy) {
		t.Fatalf("expected Has on a plain error to be false")
	}
}

func TestWithContextAccumulates(t *testing.T) {
	base := New(ParseError, "boom")
	wrapped := base.WithContext("loading %s", "status").WithContext("opening db")
	if len(wrapped.context) != 2 {
		t.Fatalf("expected 2 context frames, got %d", len(wrapped.context))
	}
	if len(base.context) != 0 {
		t.Fatalf("WithContext must not mutate the receiver")
	}
}

func TestWrapPreservesKind(t *testing.T) {
	inner := New(AmbiguousPackage, "foo")
	wrapped := Wrap(inner, "resolving %s", "foo")
	if wrapped.Kind != AmbiguousPackage {
		t.Fatalf("Wrap must preserve Kind, got %s", wrapped.Kind)
	}
}

func TestInvariantPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected Invariant to panic")
		}
		de, ok := r.(*Error)
		if !ok || de.Kind != InvariantViolation {
			t.Fatalf("expected InvariantViolation panic, got %v", r)
		}
	}()
	Invariant("unreachable: %d", 42)
}

func TestCleanupStackRunsLIFOAndSurvivesPanickingHandler(t *testing.T) {
	var order []int
	var c CleanupStack
	c.Push(true, true, func() { order = append(order, 1) })
	c.Push(true, true, func() { panic("boom") })
	c.Push(true, true, func() { order = append(order, 3) })

	c.Unwind(nil)

	if len(order) != 2 || order[0] != 3 || order[1] != 1 {
		t.Fatalf("expected LIFO order skipping the panicking frame, got %v", order)
	}
	if c.Len() != 0 {
		t.Fatalf("expected stack drained after Unwind")
	}
}

func TestCleanupStackMasks(t *testing.T) {
	var ran []string
	var c CleanupStack
	c.Push(true, false, func() { ran = append(ran, "normal-only") })
	c.Push(false, true, func() { ran = append(ran, "error-only") })

	c.Unwind(errors.New("fail"))

	if len(ran) != 1 || ran[0] != "error-only" {
		t.Fatalf("expected only the error-only handler to run, got %v", ran)
	}
}
