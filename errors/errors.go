// Package errors provides an API for errors across the application.
package errors

import (
	"errors"
	"net/http"
)

// RequestError is an error that is safe to show to the client. StatusCode is
// used as the HTTP response status.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError wraps msg in a RequestError with the given status.
func NewRequestError(statusCode int, msg string) *RequestError {
	return &RequestError{StatusCode: statusCode, Err: errors.New(msg)}
}

// AsRequestError reports whether err, or any error it wraps, is a RequestError.
func AsRequestError(err error) (*RequestError, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}

// BadRequest is a shorthand for a 400 RequestError.
func BadRequest(msg string) *RequestError {
	return NewRequestError(http.StatusBadRequest, msg)
}
