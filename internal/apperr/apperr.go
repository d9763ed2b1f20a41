// Package apperr defines the error taxonomy shared by services and handlers.
// Every error that crosses the service boundary is an *Error with a Kind;
// handlers translate the Kind into an HTTP status.
package apperr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

type Kind string

const (
	KindValidation       Kind = "VALIDATION"
	KindNotFound         Kind = "NOT_FOUND"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindForbidden        Kind = "FORBIDDEN"
	KindConflict         Kind = "CONFLICT"
	KindUnexpected       Kind = "UNEXPECTED"
)

// Error is a classified failure. Available is only meaningful for
// KindCapacityExceeded.
type Error struct {
	Kind      Kind
	Message   string
	Available int
	cause     error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Message: msg})
}

func Validation(msg string) error { return newError(KindValidation, msg) }

func Validationf(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(msg string) error { return newError(KindNotFound, msg) }

func Forbidden(msg string) error { return newError(KindForbidden, msg) }

func Conflict(msg string) error { return newError(KindConflict, msg) }

// CapacityExceeded reports that a slot cannot take the requested guests.
func CapacityExceeded(available int) error {
	return errors.WithStack(&Error{
		Kind:      KindCapacityExceeded,
		Message:   CapacityMessage(available),
		Available: available,
	})
}

// CapacityMessage is the user-facing text of a capacity rejection.
func CapacityMessage(available int) string {
	return fmt.Sprintf("Only %d seat(s) available for this date and time. Please choose fewer guests or another slot.", available)
}

// Unexpected wraps an infrastructure failure. The cause is kept for logs
// and never shown to clients.
func Unexpected(err error, msg string) error {
	return &Error{Kind: KindUnexpected, Message: msg, cause: errors.WithStack(err)}
}

// As extracts the classified error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, KindUnexpected for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
