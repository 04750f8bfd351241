package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ServerError is returned when the backend answers with a non-2xx status.
// Detail holds the backend's "detail" message when it sent one.
type ServerError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// TransportError is returned when no response was obtained at all
// (DNS failure, refused connection, cancelled context).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err (or any error in its chain) is a
// 401 from the backend.
func IsUnauthorized(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr) && serverErr.StatusCode == http.StatusUnauthorized
}

// IsTransport reports whether err (or any error in its chain) is a
// TransportError.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// Detail returns the backend-provided detail message carried by err, if any.
func Detail(err error) (string, bool) {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Detail != "" {
		return serverErr.Detail, true
	}
	return "", false
}
