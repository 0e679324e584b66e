// internal/apperr/apperr.go
//
// Structured application errors.
//
// Context
// -------
// Every error that must reach the HTTP boundary with a particular status
// code is an *Error carrying a Kind, an HTTP status, and a user-facing
// message.  Handlers return them through ordinary error returns and the
// Dispatcher maps them to a response; nothing is thrown.
//
// Persistence failures are deliberately absent from the taxonomy.  The
// entity layer reports them as false, nil, 0, or an empty slice.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error independently of its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindInvalidInput
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is the (kind, status, message) triple.  Err optionally records the
// underlying cause for logging; it never leaks into Message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with an explicit status.  Use it when an action needs
// a status outside the predefined kinds (e.g., 413).
func New(kind Kind, status int, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Message: sprintf(format, args...)}
}

// Wrap attaches cause to a new Error.
func Wrap(cause error, kind Kind, status int, format string, args ...any) *Error {
	e := New(kind, status, format, args...)
	e.Err = cause
	return e
}

func InvalidArgument(format string, args ...any) *Error {
	return New(KindInvalidArgument, http.StatusBadRequest, format, args...)
}

func InvalidInput(format string, args ...any) *Error {
	return New(KindInvalidInput, http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, http.StatusNotFound, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(KindUnauthorized, http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, http.StatusForbidden, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, http.StatusConflict, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(KindInternal, http.StatusInternalServerError, format, args...)
}

// Is reports whether err (or anything it wraps) is an *Error of kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusOf returns the HTTP status attached to err when it is a valid
// status code, otherwise 400.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && ValidStatus(e.Status) {
		return e.Status
	}
	return http.StatusBadRequest
}

// ValidStatus reports whether code lies in the HTTP status range.
func ValidStatus(code int) bool { return code >= 100 && code <= 599 }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
