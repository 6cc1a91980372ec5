// Package diversion implements the diversions database: records that
// redirect dpkg away from installing a file at its normal path,
// instead putting it somewhere else and leaving the normal path for
// the diverting package (or for the local admin) to use.
package diversion
