package common

import (
	"errors"
	"fmt"
)

// ErrKind is the closed set of failure categories the services report.
// Transport status codes are derived from the kind at the HTTP boundary
// only; the services never deal in status codes themselves.
type ErrKind int

const (
	KindValidation ErrKind = iota
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindInternal
)

func (k ErrKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// AppError carries a failure kind and a client-safe message. Wrapped
// causes stay internal.
type AppError struct {
	Kind  ErrKind
	Msg   string
	Cause error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func Validation(format string, a ...any) *AppError {
	return &AppError{Kind: KindValidation, Msg: fmt.Sprintf(format, a...)}
}

func Conflict(format string, a ...any) *AppError {
	return &AppError{Kind: KindConflict, Msg: fmt.Sprintf(format, a...)}
}

func Unauthenticated(format string, a ...any) *AppError {
	return &AppError{Kind: KindAuthentication, Msg: fmt.Sprintf(format, a...)}
}

func Forbidden(format string, a ...any) *AppError {
	return &AppError{Kind: KindAuthorization, Msg: fmt.Sprintf(format, a...)}
}

func NotFound(format string, a ...any) *AppError {
	return &AppError{Kind: KindNotFound, Msg: fmt.Sprintf(format, a...)}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Msg: "internal error", Cause: err}
}

// AsAppError unwraps err into an AppError, treating anything unknown as
// internal so that raw datastore errors never leak to clients.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// KindOf is a convenience for tests and callers that only branch on kind.
func KindOf(err error) ErrKind {
	return AsAppError(err).Kind
}
