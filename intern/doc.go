// Package intern holds the two interning tables at the core of the
// in-memory package database: the pkgset/pkginfo table (one entry per
// package name, one sub-entry per architecture instance) and the
// fsys_namenode table (one entry per canonicalized on-disk path,
// shared by every package that owns it).
//
// Both tables are append-only for the lifetime of a Arena: looked-up
// entries are never relocated or freed, so callers may hold onto a
// *Pkgset, *PkgInfo or *Node across further lookups. This mirrors the
// original C implementation's use of an obstack-backed nfmalloc arena
// that is only ever freed as a whole (see nfmalloc.c); Go's garbage
// collector makes the no-free discipline unnecessary, so Arena simply
// never removes an entry from its tables until Reset clears everything
// at once.
package intern
