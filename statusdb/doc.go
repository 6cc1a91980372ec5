// Package statusdb implements the on-disk package status journal: the
// "status" file plus its "status-old"/"status-new" backup/in-progress
// siblings, the "updates/" directory of incremental deltas applied on
// top of it, and the administration-directory advisory lock that
// serializes writers.
package statusdb
