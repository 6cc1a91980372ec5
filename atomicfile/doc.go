// Package atomicfile implements the replace-by-rename primitive used
// everywhere the package database commits a file: write the new
// content to "name-new", fsync it, optionally hard-link the current
// "name" to "name-old" as a backup, then rename "name-new" onto
// "name". A crash at any point before the final rename leaves "name"
// untouched.
package atomicfile
