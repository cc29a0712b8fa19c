// Package errors provides typed domain errors for the library service.
//
// Every error carries a Code, which decides the HTTP status, and an optional
// Reason naming the exact business condition (for example BORROW_LIMIT_EXCEEDED).
//
//	// In services - return typed errors
//	if openLoans >= limit {
//	    return errors.Conflict(errors.ReasonBorrowLimitExceeded, "reader has reached the borrowing limit")
//	}
//
//	// In handlers - check with errors.Is
//	if errors.Is(err, errors.ErrNotFound) {
//	    ...
//	}
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code represents a machine-readable error category.
type Code string

const (
	CodeNotFound      Code = "NOT_FOUND"
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	CodeValidation    Code = "VALIDATION"
	CodeConflict      Code = "CONFLICT"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeInternal      Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeConflict:
		return http.StatusConflict
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Reason narrows a Code down to a specific business condition.
type Reason string

const (
	ReasonReaderNotFound      Reason = "READER_NOT_FOUND"
	ReasonBookNotFound        Reason = "BOOK_NOT_FOUND"
	ReasonLibrarianNotFound   Reason = "LIBRARIAN_NOT_FOUND"
	ReasonBookUnavailable     Reason = "BOOK_UNAVAILABLE"
	ReasonBorrowLimitExceeded Reason = "BORROW_LIMIT_EXCEEDED"
	ReasonNoActiveLoan        Reason = "NO_ACTIVE_LOAN"
	ReasonNoCopiesAvailable   Reason = "NO_COPIES_AVAILABLE"
	ReasonHasOpenLoans        Reason = "HAS_OPEN_LOANS"
	ReasonTxConflict          Reason = "TX_CONFLICT"
	ReasonInvalidCredentials  Reason = "INVALID_CREDENTIALS"
	ReasonAccountLocked       Reason = "ACCOUNT_LOCKED"
)

// Error is a domain error with a code, reason, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Codes must match; a target with a Reason also requires the same Reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Reason == "" || e.Reason == t.Reason
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with additional details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping an underlying error.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyExists = &Error{Code: CodeAlreadyExists, Message: "already exists"}
	ErrValidation    = &Error{Code: CodeValidation, Message: "validation error"}
	ErrConflict      = &Error{Code: CodeConflict, Message: "conflict"}
	ErrUnauthorized  = &Error{Code: CodeUnauthorized, Message: "unauthorized"}
	ErrForbidden     = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrInternal      = &Error{Code: CodeInternal, Message: "internal error"}

	// ErrTxConflict marks a transaction that lost a race with a concurrent one.
	// It is the only failure the borrowing workflow retries.
	ErrTxConflict = &Error{Code: CodeConflict, Reason: ReasonTxConflict, Message: "concurrent update, please retry"}
)

func NotFound(reason Reason, msg string) *Error {
	return &Error{Code: CodeNotFound, Reason: reason, Message: msg}
}

func NotFoundf(reason Reason, format string, args ...any) *Error {
	return NotFound(reason, fmt.Sprintf(format, args...))
}

func AlreadyExists(msg string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// ValidationWithDetails creates a validation error carrying per-field messages.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

func Conflict(reason Reason, msg string) *Error {
	return &Error{Code: CodeConflict, Reason: reason, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Code: CodeUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// Internal wraps an unexpected failure. The cause is kept for logging only.
func Internal(msg string, cause error) *Error {
	return &Error{Code: CodeInternal, Message: msg, cause: cause}
}

// CodeOf extracts the code of a domain error, or CodeInternal for anything else.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ReasonOf extracts the reason of a domain error, if any.
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
