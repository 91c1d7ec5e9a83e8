package apperr

import (
	"errors"
	"net/http"
)

// Error is a failure with an HTTP status attached. Use-cases return these;
// the HTTP layer maps anything else to a 500.
type Error struct {
	Status  int
	Message string
	Err     error // optional cause, never serialized
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

func Auth(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

func Internal(msg string, cause error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: cause}
}

// StatusOf returns the HTTP status carried by err, or 500 for unknown errors.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns a client-safe message for err. Unknown errors and 5xx
// failures get a generic message so no internal detail crosses the boundary.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Status < http.StatusInternalServerError {
		return ae.Message
	}
	return "internal server error"
}
