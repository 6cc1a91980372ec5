// Package arch implements the architecture registry and the
// architecture-satisfaction rule used by dependency checks: given an
// installed pkgbin's architecture and multi-arch mode, and a dependency
// possibility's architecture qualifier, decide whether the possibility is
// satisfied on architecture grounds alone.
package arch
