// Package errs provides the error taxonomy shared by all collaboration
// services. Every rejected call carries exactly one Kind so callers can
// distinguish bad requests from missing rights from gone resources.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	// KindNotFound indicates a document, invitation or version is absent.
	KindNotFound Kind = "not_found"
	// KindAuthorization indicates a permission predicate returned false or
	// an invitation/role mismatch.
	KindAuthorization Kind = "authorization"
	// KindConflict indicates a duplicate collaborator, duplicate pending
	// invitation or already-responded invitation.
	KindConflict Kind = "conflict"
	// KindValidation indicates malformed input.
	KindValidation Kind = "validation"
	// KindExpired indicates an invitation past its expiry at accept time.
	KindExpired Kind = "expired"
	// KindInternal indicates an unexpected failure.
	KindInternal Kind = "internal"
)

// Error is a classified error. All errors returned by the service layer
// are terminal for the triggering call; callers decide retry policy.
type Error struct {
	Kind    Kind
	Message string
	err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.err }

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return Newf(KindNotFound, format, args...)
}

// Authorization creates an authorization error.
func Authorization(format string, args ...any) *Error {
	return Newf(KindAuthorization, format, args...)
}

// Conflict creates a conflict error.
func Conflict(format string, args ...any) *Error {
	return Newf(KindConflict, format, args...)
}

// Validation creates a validation error.
func Validation(format string, args ...any) *Error {
	return Newf(KindValidation, format, args...)
}

// Expired creates an expiry error.
func Expired(format string, args ...any) *Error {
	return Newf(KindExpired, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return Wrap(KindInternal, message, err)
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
