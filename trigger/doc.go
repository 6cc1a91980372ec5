// Package trigger implements the trigger engine: the file-trigger
// interests store (triggers/File), the deferred-activation store
// (triggers/Unincorp), trigger-name validation, and the pending/
// awaited state machine that drives a pkginfo's status between
// triggers-pending and triggers-awaited.
package trigger
