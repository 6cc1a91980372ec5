// Package version implements Debian version ordering: parsing a
// "[epoch:]upstream[-revision]" string and comparing two versions with
// the verrevcmp rule applied independently to the upstream and revision
// components.
package version
