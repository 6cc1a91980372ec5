// Package dpkgdb wires every on-disk subsystem (the interned package
// table, the status journal, diversions, statoverrides, per-package
// info files and the trigger engine) into a single administration
// directory handle, the way database.c and dbdir.c tie the library's
// internals together for callers.
package dpkgdb
