package client

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError is returned when the backend was reached but answered with a
// non-success status. Message is taken from the response's "error" field
// when one could be parsed.
type RequestError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *RequestError) Error() string {
	return e.Message
}

// TransportError is returned when no usable response was received: the
// backend was unreachable, the call timed out or was cancelled, or the
// response body could not be decoded.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is a RequestError with status 404.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}
