package trigger

import "github.com/etnz/dpkgdb/dpkgerr"

// ValidateName reports whether name is a legal trigger name: non-empty,
// every byte printable ASCII strictly between 0x20 and 0x7f, so no
// whitespace and no control characters (trig_name_is_illegal).
func ValidateName(name string) error {
	if name == "" {
		return dpkgerr.New(dpkgerr.ParseError, "empty trigger names are not permitted")
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= ' ' || c >= 0x7f {
			return dpkgerr.New(dpkgerr.ParseError, "trigger name %q contains an invalid character", name)
		}
	}
	return nil
}

// ValidatePath reports whether path is a legal file-trigger path: it
// is exempted from ValidateName's character restrictions since it is a
// filesystem path rather than a short token, but must still be
// non-empty and absolute.
func ValidatePath(path string) error {
	if path == "" || path[0] != '/' {
		return dpkgerr.New(dpkgerr.ParseError, "file trigger path %q must be absolute", path)
	}
	return nil
}
