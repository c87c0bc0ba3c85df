// Package errors provides the domain errors shared by services and the
// API layer. Services return typed errors:
//
//	if usernameTaken {
//	    return errors.Conflict("username already in use for this event")
//	}
//
// The API error handler maps them to responses through Code.HTTPStatus,
// so transport concerns never leak into the services. Callers match
// either with errors.Is against ErrNotFound or with errors.As on
// *Error when they need the Code or Details.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code carried in API responses.
type Code string

const (
	CodeNotFound     Code = "NOT_FOUND"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeValidation   Code = "VALIDATION"
	CodeConflict     Code = "CONFLICT"
	CodeInternal     Code = "INTERNAL"
	CodeTokenExpired Code = "TOKEN_EXPIRED"
)

// HTTPStatus maps the code to its HTTP response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeUnauthorized, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error with the same Code, so errors.Is(err,
// ErrNotFound) works no matter which message the service chose.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// WithCause returns a copy wrapping err, preserved through Unwrap for
// logging while the response only carries Code and Message.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: e.Details, cause: err}
}

// ErrNotFound matches any not-found domain error via errors.Is.
var ErrNotFound = &Error{Code: CodeNotFound, Message: "not found"}

// NotFound creates a not found error.
func NotFound(msg string) *Error { return &Error{Code: CodeNotFound, Message: msg} }

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *Error { return &Error{Code: CodeUnauthorized, Message: msg} }

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error { return &Error{Code: CodeForbidden, Message: msg} }

// Validation creates a validation error.
func Validation(msg string) *Error { return &Error{Code: CodeValidation, Message: msg} }

// ValidationWithDetails creates a validation error carrying per-field
// details for the response body.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Conflict creates a conflict error.
func Conflict(msg string) *Error { return &Error{Code: CodeConflict, Message: msg} }

// Internal creates an internal error.
func Internal(msg string) *Error { return &Error{Code: CodeInternal, Message: msg} }

// TokenExpired creates a token expired error.
func TokenExpired(msg string) *Error { return &Error{Code: CodeTokenExpired, Message: msg} }
