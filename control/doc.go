// Package control parses and serializes Debian control-file stanzas:
// the RFC822-like, colon-separated, continuation-folded field syntax
// shared by the status file, .deb control members, and Packages
// indices. It also understands the specific sub-grammars carried
// inside particular fields (dependency alternatives, the three-token
// Status: line, and Conffiles: entries), converting them to and from
// the intern package's typed representation.
package control
