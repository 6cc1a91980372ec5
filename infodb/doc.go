// Package infodb resolves and rewrites the per-package info files
// under an administration directory's info/ subdirectory: the file
// list, md5sums digests, conffiles list, maintainer scripts, and
// trigger interests that make up one unpacked package's on-disk
// metadata. It also recognizes the multi-arch info/format marker
// that switches info file naming from "pkg.ext" to "pkg:arch.ext".
package infodb
