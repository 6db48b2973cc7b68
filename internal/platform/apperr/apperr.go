// Package apperr defines the error taxonomy shared by the registries and the
// transfer coordinator. Every failure returned to a caller carries a Kind so
// that the presentation layer can render a distinct message per failure class
// instead of a generic error.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is the zero value; errors without a taxonomy kind.
	KindUnknown Kind = iota
	// KindValidation marks malformed input (negative capacity, same
	// source and destination hospital, unparseable enum values).
	KindValidation
	// KindNotFound marks a reference to an absent entity.
	KindNotFound
	// KindConflict marks a duplicate MRN or a patient not at the stated
	// source hospital.
	KindConflict
	// KindCapacity marks a reservation attempt against a full hospital.
	KindCapacity
	// KindState marks an illegal transfer-state transition.
	KindState
	// KindInvariant marks an internal consistency violation, e.g. a bed
	// release beyond capacity. It indicates a defect in the calling code,
	// not a user error, and should be logged when observed.
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCapacity:
		return "capacity"
	case KindState:
		return "state"
	case KindInvariant:
		return "invariant"
	default:
		return "unknown"
	}
}

// Error is a classified error. It supports errors.As and wraps an optional
// underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error with an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validationf(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFoundf(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func Capacityf(format string, args ...interface{}) *Error {
	return New(KindCapacity, format, args...)
}

func Statef(format string, args ...interface{}) *Error {
	return New(KindState, format, args...)
}

func Invariantf(format string, args ...interface{}) *Error {
	return New(KindInvariant, format, args...)
}

// KindOf extracts the Kind of err, unwrapping as needed. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
