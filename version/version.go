package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/etnz/dpkgdb/dpkgerr"
)

// Version is a parsed Debian version tuple. Absent Upstream/Revision
// compare equal to empty, matching the data model's "absent fields
// compare equal to empty" rule.
type Version struct {
	Epoch    uint64
	Upstream string
	Revision string
}

// Parse splits s into epoch, upstream and revision per the Debian version
// grammar: "(epoch:)? upstream (-revision)?". Epoch is an unsigned
// integer, upstream is required and must start with a digit, revision is
// everything after the last '-' if any '-' appears.
func Parse(s string) (Version, error) {
	var v Version

	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epochStr := s[:i]
		if epochStr == "" {
			return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
				"version %q has an empty epoch", s)
		}
		e, err := strconv.ParseUint(epochStr, 10, 64)
		if err != nil {
			return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
				"version %q has a non-numeric epoch %q", s, epochStr)
		}
		v.Epoch = e
		rest = s[i+1:]
	}

	upstream := rest
	revision := ""
	if i := strings.LastIndexByte(rest, '-'); i >= 0 {
		upstream = rest[:i]
		revision = rest[i+1:]
	}

	if upstream == "" {
		return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
			"version %q has an empty upstream version", s)
	}
	if !isASCIIDigit(upstream[0]) {
		return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
			"version %q: upstream version %q must start with a digit", s, upstream)
	}
	if err := checkAllowedChars(upstream, true); err != nil {
		return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
			"version %q: %s", s, err)
	}
	if err := checkAllowedChars(revision, false); err != nil {
		return Version{}, dpkgerr.NewParse("", 0, 0, dpkgerr.ReasonBadVersion,
			"version %q: %s", s, err)
	}

	v.Upstream = upstream
	v.Revision = revision
	return v, nil
}

func isASCIIDigit(c byte) bool { return c >= '0' && c <= '9' }

// checkAllowedChars validates the character class Debian allows in an
// upstream version (alphanumerics, '.', '+', '-', '~', and, for upstream
// only, ':') or a revision (the same set minus ':').
func checkAllowedChars(s string, upstream bool) error {
	for _, c := range []byte(s) {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			continue
		case c == '.' || c == '+' || c == '-' || c == '~':
			continue
		case c == ':' && upstream:
			continue
		default:
			return fmt.Errorf("disallowed character %q", c)
		}
	}
	return nil
}

// String renders the canonical "[epoch:]upstream[-revision]" form. A
// round trip through Parse must yield an equal Version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d:", v.Epoch)
	}
	b.WriteString(v.Upstream)
	if v.Revision != "" {
		b.WriteByte('-')
		b.WriteString(v.Revision)
	}
	return b.String()
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than
// other, ordering first by epoch, then by the verrevcmp rule on upstream,
// then by the verrevcmp rule on revision.
func (v Version) Compare(other Version) int {
	if v.Epoch != other.Epoch {
		if v.Epoch < other.Epoch {
			return -1
		}
		return 1
	}
	if r := verrevcmp(v.Upstream, other.Upstream); r != 0 {
		return r
	}
	return verrevcmp(v.Revision, other.Revision)
}

// Equal reports whether v and other compare equal.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// order assigns a sort weight to a single byte per the Debian rule: '~'
// sorts before end-of-string, end-of-string sorts before any other
// character, letters sort before non-letters, and within each class by
// ASCII value.
func order(c byte) int {
	switch {
	case c == '~':
		return -1
	case isASCIIDigit(c):
		return 0
	case c == 0:
		return 0
	case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		return int(c)
	default:
		return int(c) + 256
	}
}

// verrevcmp implements the Debian version-component comparison: split
// into alternating non-digit/digit runs, compare non-digit runs
// character-by-character with order(), compare digit runs numerically
// ignoring leading zeros.
func verrevcmp(a, b string) int {
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		// Non-digit run.
		for (i < len(a) && !isASCIIDigit(a[i])) || (j < len(b) && !isASCIIDigit(b[j])) {
			var ac, bc byte
			if i < len(a) {
				ac = a[i]
			}
			if j < len(b) {
				bc = b[j]
			}
			vc, rc := order(ac), order(bc)
			if vc != rc {
				return sign(vc - rc)
			}
			if i < len(a) {
				i++
			}
			if j < len(b) {
				j++
			}
		}

		for i < len(a) && a[i] == '0' {
			i++
		}
		for j < len(b) && b[j] == '0' {
			j++
		}

		firstDiff := 0
		for i < len(a) && j < len(b) && isASCIIDigit(a[i]) && isASCIIDigit(b[j]) {
			if firstDiff == 0 {
				firstDiff = int(a[i]) - int(b[j])
			}
			i++
			j++
		}
		if i < len(a) && isASCIIDigit(a[i]) {
			return 1
		}
		if j < len(b) && isASCIIDigit(b[j]) {
			return -1
		}
		if firstDiff != 0 {
			return sign(firstDiff)
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// Bump increments the revision part of v so the result sorts strictly
// greater under Compare: a purely numeric revision is incremented;
// otherwise the last alphanumeric character of the revision is bumped
// through 0-9, a-z, appending a new "0" segment once 'z' is reached. A
// version with no revision gets "-1" appended.
func (v Version) Bump() Version {
	if v.Revision == "" {
		v.Revision = "1"
		return v
	}
	if n, err := strconv.Atoi(v.Revision); err == nil {
		v.Revision = strconv.Itoa(n + 1)
		return v
	}

	runes := []rune(v.Revision)
	for i := len(runes) - 1; i >= 0; i-- {
		c := runes[i]
		switch {
		case c >= '0' && c < '9':
			runes[i]++
			v.Revision = string(runes)
			return v
		case c == '9':
			runes[i] = 'a'
			v.Revision = string(runes)
			return v
		case c >= 'a' && c < 'z':
			runes[i]++
			v.Revision = string(runes)
			return v
		case c == 'z':
			v.Revision = string(runes[:i+1]) + "0" + string(runes[i+1:])
			return v
		}
	}
	v.Revision += "1"
	return v
}

// Relation is a version-relation operator, plus the sentinel None meaning
// "no constraint, always satisfied".
type Relation int

const (
	None Relation = iota
	Lt
	Le
	Eq
	Ge
	Gt
)

func (r Relation) String() string {
	switch r {
	case None:
		return ""
	case Lt:
		return "<<"
	case Le:
		return "<="
	case Eq:
		return "="
	case Ge:
		return ">="
	case Gt:
		return ">>"
	default:
		return "?"
	}
}

// Satisfied reports whether cmp (the result of Version.Compare(it, ref))
// satisfies the relation.
func (r Relation) Satisfied(cmp int) bool {
	switch r {
	case None:
		return true
	case Lt:
		return cmp < 0
	case Le:
		return cmp <= 0
	case Eq:
		return cmp == 0
	case Ge:
		return cmp >= 0
	case Gt:
		return cmp > 0
	default:
		return false
	}
}

// ParseRelation parses one of the control-file relation tokens, accepting
// the deprecated bare '<'/'>' aliases for Le/Ge. ok reports whether the
// deprecated form was used, so the caller can surface a warning.
func ParseRelation(tok string) (rel Relation, deprecated bool, err error) {
	switch tok {
	case "<<":
		return Lt, false, nil
	case "<=":
		return Le, false, nil
	case "=":
		return Eq, false, nil
	case ">=":
		return Ge, false, nil
	case ">>":
		return Gt, false, nil
	case "<":
		return Le, true, nil
	case ">":
		return Ge, true, nil
	default:
		return None, false, fmt.Errorf("unknown version relation %q", tok)
	}
}
