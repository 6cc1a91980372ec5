// Package override implements the stat overrides database: per-path
// records that force a specific owner, group and mode onto a file
// regardless of what the owning package's archive entry specifies.
package override
