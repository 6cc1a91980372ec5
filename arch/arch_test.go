package arch

import "testing"

func TestSatisfiesForeignAlwaysMatches(t *testing.T) {
	r := NewRegistry("amd64")
	if !r.Satisfies("i386", Foreign, "arm64", Depends) {
		t.Fatalf("Multi-Arch: foreign must satisfy any architecture qualifier")
	}
}

func TestSatisfiesAnyWildcard(t *testing.T) {
	r := NewRegistry("amd64")

	if !r.Satisfies("amd64", Allowed, Any, Depends) {
		t.Errorf("Multi-Arch: allowed must satisfy the ':any' wildcard for Depends")
	}
	if r.Satisfies("amd64", No, Any, Depends) {
		t.Errorf("Multi-Arch: no must not satisfy the ':any' wildcard for Depends")
	}
	// Conflicts/Replaces/Breaks satisfy ':any' regardless of multi-arch mode.
	if !r.Satisfies("amd64", No, Any, Conflicts) {
		t.Errorf("Conflicts must satisfy ':any' irrespective of multi-arch mode")
	}
}

func TestSatisfiesSubstitutesAllAndNative(t *testing.T) {
	r := NewRegistry("amd64")

	if !r.Satisfies(All, No, "amd64", Depends) {
		t.Errorf("Architecture: all must satisfy a native-arch dependency")
	}
	if !r.Satisfies("amd64", No, "", Depends) {
		t.Errorf("empty qualifier must substitute the native architecture")
	}
	if r.Satisfies("i386", No, "amd64", Depends) {
		t.Errorf("mismatched concrete architectures must not satisfy")
	}
}

func TestRegistryAddAndKnown(t *testing.T) {
	r := NewRegistry("amd64")
	if r.Known("arm64") {
		t.Fatalf("arm64 should not be known yet")
	}
	r.Add("arm64")
	if !r.Known("arm64") {
		t.Fatalf("arm64 should be known after Add")
	}
}
