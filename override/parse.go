package override

import (
	"os/user"
	"strconv"

	"github.com/etnz/dpkgdb/dpkgerr"
)

// Unresolved is the sentinel UID/GID recorded when a name in the
// override file no longer maps to a system account, mirroring the
// original's (uid_t)-1/(gid_t)-1 convention.
const Unresolved = -1

func parseUID(tok string) (uid int32, uname string, err error) {
	if len(tok) > 0 && tok[0] == '#' {
		n, convErr := strconv.ParseInt(tok[1:], 10, 32)
		if convErr != nil || n < 0 {
			return 0, "", dpkgerr.New(dpkgerr.ParseError, "invalid statoverride uid %q", tok)
		}
		return int32(n), "", nil
	}
	u, lookErr := user.Lookup(tok)
	if lookErr != nil {
		return Unresolved, tok, nil
	}
	n, convErr := strconv.ParseInt(u.Uid, 10, 32)
	if convErr != nil {
		return Unresolved, tok, nil
	}
	return int32(n), "", nil
}

func parseGID(tok string) (gid int32, gname string, err error) {
	if len(tok) > 0 && tok[0] == '#' {
		n, convErr := strconv.ParseInt(tok[1:], 10, 32)
		if convErr != nil || n < 0 {
			return 0, "", dpkgerr.New(dpkgerr.ParseError, "invalid statoverride gid %q", tok)
		}
		return int32(n), "", nil
	}
	g, lookErr := user.LookupGroup(tok)
	if lookErr != nil {
		return Unresolved, tok, nil
	}
	n, convErr := strconv.ParseInt(g.Gid, 10, 32)
	if convErr != nil {
		return Unresolved, tok, nil
	}
	return int32(n), "", nil
}

func parseMode(tok string) (uint32, error) {
	n, err := strconv.ParseInt(tok, 8, 32)
	if err != nil || n < 0 || n > 07777 {
		return 0, dpkgerr.New(dpkgerr.ParseError, "invalid statoverride mode %q", tok)
	}
	return uint32(n), nil
}
