package intern

import "github.com/etnz/dpkgdb/version"

// IsInformative reports whether a PkgInfo instance carries enough
// state to be worth writing out, mirroring pkg_is_informative
// (pkg.c/database.c): section and priority are ignored because they
// tend to linger on packages nobody has touched.
func (p *PkgInfo) IsInformative() bool {
	if p.Want != WantUnknown || p.EFlag != EFlagOk || p.Status != StatNotInstalled {
		return true
	}
	if isInformativeVersion(p.ConfigVersion) {
		return true
	}
	return p.Installed.isInformative()
}

func (b *Pkgbin) isInformative() bool {
	if len(b.Depends) > 0 || len(b.Conffiles) > 0 || len(b.Arbitrary) > 0 {
		return true
	}
	if b.Description != "" || b.Maintainer != "" || b.Origin != "" || b.Bugs != "" ||
		b.InstalledSize != "" || b.Source != "" {
		return true
	}
	return isInformativeVersion(b.Version)
}

func isInformativeVersion(v version.Version) bool {
	return v.Epoch != 0 || v.Upstream != "" || v.Revision != ""
}
