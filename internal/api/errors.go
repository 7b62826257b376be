package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError is a request that never produced a usable response: dial
// failure, timeout, cancellation or an undecodable body.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response. Message holds the body's "error"
// field, or the trimmed text body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
}

// Message extracts user-facing text from err. Server messages are shown
// verbatim, everything else falls back.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var serr *ServerError
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return fallback
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	var serr *ServerError
	return errors.As(err, &serr) && serr.Status == http.StatusNotFound
}
