package store

import (
	"fmt"
	"net/http"
)

// Error carries an HTTP status alongside the store failure so the API
// layer can map storage conditions to response codes without string
// matching.
type Error struct {
	Code    int
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

// HTTPCode returns the status code for this error.
func (e *Error) HTTPCode() int { return e.Code }

var (
	// ErrNotFound is returned when no entity exists under the given key.
	ErrNotFound = &Error{Code: http.StatusNotFound, Message: "resource not found"}

	// ErrAlreadyExists is returned on ID or unique-index collisions.
	ErrAlreadyExists = &Error{Code: http.StatusConflict, Message: "resource already exists"}
)
