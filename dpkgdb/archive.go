package dpkgdb

import (
	"io"
	"strings"

	"github.com/etnz/dpkgdb/control"
	"github.com/etnz/dpkgdb/deb"
	"github.com/etnz/dpkgdb/dpkgerr"
	"github.com/etnz/dpkgdb/intern"
)

// dependencyFieldsOf maps each control field name of the dependency
// family to the matching deb.Metadata relationship list; ImportArchive
// joins each list back into a single comma-separated field value the
// way it appeared in the archive's own control file.
func dependencyFieldsOf(m deb.Metadata) map[string][]string {
	return map[string][]string{
		"Depends":     m.Depends,
		"Pre-Depends": m.PreDepends,
		"Recommends":  m.Recommends,
		"Suggests":    m.Suggests,
		"Enhances":    m.Enhances,
		"Conflicts":   m.Conflicts,
		"Breaks":      m.Breaks,
		"Replaces":    m.Replaces,
		"Provides":    m.Provides,
	}
}

// ImportArchive reads a .deb archive's control metadata with the deb
// package and interns it into Arena, the way dpkg's "available" file
// records a package's archive metadata ahead of unpacking (the
// pdb_recordavailable path of update.c, as distinct from the "status"
// file's pdb_recordavailable|pdb_recordstatus path statusdb handles).
// It leaves Want/Status untouched: importing archive metadata does not
// by itself install or configure anything.
func (db *Database) ImportArchive(r io.Reader) (*intern.PkgInfo, error) {
	pkg, err := deb.NewPackage(r)
	if err != nil {
		return nil, dpkgerr.Wrap(err, "import archive")
	}

	st := control.NewStanza()
	st.Set("Package", pkg.Metadata.Package)
	st.Set("Version", pkg.Metadata.Version)
	st.Set("Architecture", pkg.Metadata.Architecture)
	if pkg.Metadata.Maintainer != "" {
		st.Set("Maintainer", pkg.Metadata.Maintainer)
	}
	if pkg.Metadata.Description != "" {
		st.Set("Description", pkg.Metadata.Description)
	}
	if pkg.Metadata.Source != "" {
		st.Set("Source", pkg.Metadata.Source)
	}
	if pkg.Metadata.Essential {
		st.Set("Essential", "yes")
	}
	for field, values := range dependencyFieldsOf(pkg.Metadata) {
		if len(values) > 0 {
			st.Set(field, strings.Join(values, ", "))
		}
	}

	info, err := control.ParsePkgInfo(st, db.Arena, db.Registry)
	if err != nil {
		return nil, dpkgerr.Wrap(err, "import archive %s", pkg.StandardFilename())
	}
	return info, nil
}
