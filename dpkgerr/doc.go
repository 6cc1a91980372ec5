// Package dpkgerr provides the tagged error result used throughout the
// dpkgdb subsystems, plus a small cleanup stack that re-expresses the
// push_cleanup/pop_cleanup unwind pattern of dpkg's C sources as
// ordinary Go scoped guards.
//
// Every operation that can fail returns either success or an *Error
// carrying a Kind, an optional wrapped system error, a message and a
// stack of context frames pushed by callers with WithContext.
package dpkgerr
