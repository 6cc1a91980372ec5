package dpkgdb

import "testing"

func TestRootPathNeverDoublesSlash(t *testing.T) {
	db := &Database{Root: "/sysroot/"}
	if got := db.RootPath("/usr/bin/ls"); got != "/sysroot/usr/bin/ls" {
		t.Errorf("RootPath = %q", got)
	}

	db.Root = ""
	if got := db.RootPath("/usr/bin/ls"); got != "/usr/bin/ls" {
		t.Errorf("empty root must be a no-op, got %q", got)
	}
}

func TestDebugFromEnvParsesOctal(t *testing.T) {
	t.Setenv("DPKG_DEBUG", "777")
	d := DebugFromEnv()
	if !d.Has(DebugGeneral) || !d.Has(DebugScripts) || !d.Has(DebugConffiles) {
		t.Errorf("flags = %o", uint64(d))
	}
	if d.Has(DebugTriggers) {
		t.Errorf("0777 must not include the triggers bit (010000)")
	}

	t.Setenv("DPKG_DEBUG", "bogus")
	if DebugFromEnv() != 0 {
		t.Errorf("malformed DPKG_DEBUG should yield no flags")
	}
}

func TestColorModeFromEnv(t *testing.T) {
	t.Setenv("DPKG_COLORS", "never")
	if ColorModeFromEnv() != ColorNever {
		t.Errorf("never not recognized")
	}
	t.Setenv("DPKG_COLORS", "")
	if ColorModeFromEnv() != ColorAuto {
		t.Errorf("default must be auto")
	}
}

func TestMaintscriptFromEnv(t *testing.T) {
	t.Setenv("DPKG_MAINTSCRIPT_PACKAGE", "pkg-b")
	t.Setenv("DPKG_MAINTSCRIPT_ARCH", "amd64")
	t.Setenv("DPKG_MAINTSCRIPT_NAME", "postinst")
	t.Setenv("DPKG_RUNNING_VERSION", "1.22.0")

	env, ok := MaintscriptFromEnv()
	if !ok {
		t.Fatalf("expected a maintainer script context")
	}
	if env.Package != "pkg-b" || env.Arch != "amd64" || env.Name != "postinst" || env.RunningVersion != "1.22.0" {
		t.Errorf("env = %+v", env)
	}

	t.Setenv("DPKG_MAINTSCRIPT_PACKAGE", "")
	if _, ok := MaintscriptFromEnv(); ok {
		t.Errorf("no package variable must mean no context")
	}
}
