// Package syncerr defines the error kinds shared across the sync
// pipeline, following the wrap-with-context idiom used throughout the
// pack (fmt.Errorf("...: %w", err) plus errors.Is/errors.As) rather
// than a bespoke error hierarchy.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind tags why an operation failed.
type Kind int

const (
	IO Kind = iota
	PathInvalid
	Permission
	Comparison
	Hashing
	FilterInvalid
	ConflictResolution
	Preservation
	Copy
	Delete
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IO"
	case PathInvalid:
		return "PathInvalid"
	case Permission:
		return "Permission"
	case Comparison:
		return "Comparison"
	case Hashing:
		return "Hashing"
	case FilterInvalid:
		return "FilterInvalid"
	case ConflictResolution:
		return "ConflictResolution"
	case Preservation:
		return "Preservation"
	case Copy:
		return "Copy"
	case Delete:
		return "Delete"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every package in the
// pipeline. Path is optional context (the file or directory involved).
type Error struct {
	Kind  Kind
	Path  string
	msg   string
	cause error
}

func New(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, msg: msg, cause: cause}
}

// WithPath returns a copy of e annotated with a path.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.cause != nil {
			return fmt.Sprintf("%s: %s (%s): %v", e.Kind, e.msg, e.Path, e.cause)
		}
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.msg, e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *Error with the same Kind, so callers
// can write errors.Is(err, syncerr.New(syncerr.Cancelled, "", nil)) or,
// more idiomatically, compare Kinds directly via errors.As.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// KindOf extracts the Kind from err, if it (or something it wraps) is
// a *Error. ok is false for errors outside this package's taxonomy.
func KindOf(err error) (kind Kind, ok bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Wrap is a convenience for fmt.Errorf("...: %w", cause)-style
// construction with a Kind attached.
func Wrap(kind Kind, msg, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, msg: msg, cause: cause}
}

var (
	// ErrCancelled is a sentinel for context-cancellation checks.
	ErrCancelled = New(Cancelled, "operation cancelled", nil)
)
