package dpkgerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags the broad category of a failure.
type Kind int

const (
	// IoError means a system call failed; Err preserves the underlying
	// error (usually an *os.PathError or syscall.Errno).
	IoError Kind = iota
	// ParseError carries File/Line/Column/Reason; see ParseReason.
	ParseError
	// InvariantViolation means an internal assertion failed. Code that
	// raises it is expected to panic, never return it to a caller.
	InvariantViolation
	// LockBusy means a non-blocking lock attempt collided with another
	// holder (EACCES/EAGAIN).
	LockBusy
	// AmbiguousPackage means a specifier matched more than one instance
	// when exactly one was required.
	AmbiguousPackage
	// UnknownPackage means a specifier named a package with no pkgset.
	UnknownPackage
	// UnknownArch means a specifier or control field named an
	// unregistered architecture.
	UnknownArch
	// ConflictingDiversion means two diversion records share an endpoint.
	ConflictingDiversion
	// DuplicateStatoverride means a path has more than one override.
	DuplicateStatoverride
	// OrphanOverride means an override refers to a path with no
	// fsys_namenode.
	OrphanOverride
	// CorruptDatabase means magic bytes or a format version didn't match.
	CorruptDatabase
)

func (k Kind) String() string {
	switch k {
	case IoError:
		return "IoError"
	case ParseError:
		return "ParseError"
	case InvariantViolation:
		return "InvariantViolation"
	case LockBusy:
		return "LockBusy"
	case AmbiguousPackage:
		return "AmbiguousPackage"
	case UnknownPackage:
		return "UnknownPackage"
	case UnknownArch:
		return "UnknownArch"
	case ConflictingDiversion:
		return "ConflictingDiversion"
	case DuplicateStatoverride:
		return "DuplicateStatoverride"
	case OrphanOverride:
		return "OrphanOverride"
	case CorruptDatabase:
		return "CorruptDatabase"
	default:
		return "UnknownKind"
	}
}

// ParseReason further classifies a ParseError.
type ParseReason int

const (
	ReasonMissingField ParseReason = iota
	ReasonUnknownField
	ReasonDuplicateField
	ReasonBadValue
	ReasonBadVersion
	ReasonBadDependency
	ReasonBadControlName
)

func (r ParseReason) String() string {
	switch r {
	case ReasonMissingField:
		return "MissingField"
	case ReasonUnknownField:
		return "UnknownField"
	case ReasonDuplicateField:
		return "DuplicateField"
	case ReasonBadValue:
		return "BadValue"
	case ReasonBadVersion:
		return "BadVersion"
	case ReasonBadDependency:
		return "BadDependency"
	case ReasonBadControlName:
		return "BadControlName"
	default:
		return "UnknownReason"
	}
}

// Error is the tagged result returned by every fallible dpkgdb operation.
type Error struct {
	Kind Kind
	Err  error // wrapped system or lower-level error, may be nil

	// Parse-specific fields, set only when Kind == ParseError.
	File   string
	Line   int
	Column int
	Reason ParseReason

	Message string
	context []string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Kind == ParseError && e.File != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.File, e.Line, e.Column)
	}
	b.WriteString(e.Kind.String())
	if e.Kind == ParseError {
		fmt.Fprintf(&b, "(%s)", e.Reason)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	for _, c := range e.context {
		fmt.Fprintf(&b, "\n\tin %s", c)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Has reports whether err (or anything it wraps) is an *Error of the
// given Kind.
func Has(err error, k Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == k
	}
	return false
}

// WithContext returns a copy of e with an additional context frame
// pushed, mirroring dpkg's per-call error context stack.
func (e *Error) WithContext(frame string, args ...any) *Error {
	cp := *e
	cp.context = append(append([]string{}, e.context...), fmt.Sprintf(frame, args...))
	return &cp
}

// New builds a plain error of the given kind with a formatted message.
func New(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an IoError (by default) wrapping a lower-level error. If err
// is already a *Error its Kind is preserved.
func Wrap(err error, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return de.WithContext(format, args...)
	}
	return &Error{Kind: IoError, Err: err, Message: fmt.Sprintf(format, args...)}
}

// NewParse builds a ParseError with file/line/column location.
func NewParse(file string, line, col int, reason ParseReason, format string, args ...any) *Error {
	return &Error{
		Kind:    ParseError,
		File:    file,
		Line:    line,
		Column:  col,
		Reason:  reason,
		Message: fmt.Sprintf(format, args...),
	}
}

// Invariant panics with an InvariantViolation error. Internal code uses
// this for assertions that must never be reached in a correct program;
// library users are not expected to recover from it, matching dpkg's
// longjmp-to-fatal behavior for internal errors.
func Invariant(format string, args ...any) {
	panic(&Error{Kind: InvariantViolation, Message: fmt.Sprintf(format, args...)})
}
