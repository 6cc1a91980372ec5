package specifier

import "github.com/etnz/dpkgdb/dpkgerr"

// globChars are the characters whose presence in a name or arch token
// marks it as a pattern rather than a literal (pkg_spec_prep's
// strpbrk(ps->name, "*[?\\")).
const globChars = "*[?\\"

func isGlob(s string) bool {
	return containsAny(s, globChars)
}

func containsAny(s, chars string) bool {
	for i := 0; i < len(s); i++ {
		for j := 0; j < len(chars); j++ {
			if s[i] == chars[j] {
				return true
			}
		}
	}
	return false
}

// validatePkgName checks a literal (non-pattern) package name against
// dpkg's naming rule: at least two characters, lowercase letters,
// digits, '+', '-' and '.', starting with an alphanumeric.
func validatePkgName(name string) error {
	if len(name) < 2 {
		return dpkgerr.New(dpkgerr.ParseError, "package name %q is too short", name)
	}
	if !isAlnum(name[0]) {
		return dpkgerr.New(dpkgerr.ParseError, "package name %q must start with an alphanumeric", name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAlnum(c) || c == '+' || c == '-' || c == '.' {
			continue
		}
		return dpkgerr.New(dpkgerr.ParseError, "invalid character %q in package name %q", string(c), name)
	}
	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// validateArchName checks a literal (non-pattern) architecture name:
// alphanumerics and '-', starting with an alphanumeric.
func validateArchName(name string) error {
	if name == "" {
		return dpkgerr.New(dpkgerr.ParseError, "empty architecture name in specifier")
	}
	if !isAlnum(name[0]) {
		return dpkgerr.New(dpkgerr.ParseError, "architecture name %q must start with an alphanumeric", name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAlnum(c) || c == '-' {
			continue
		}
		return dpkgerr.New(dpkgerr.ParseError, "invalid character %q in architecture name %q", string(c), name)
	}
	return nil
}
