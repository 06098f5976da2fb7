package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError means the request never produced a usable reply: the
// server was unreachable, the call timed out, or the status was not 2xx.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError is a well-formed reply with success=false.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsApplication reports whether err is a success=false reply rather than a
// transport failure.
func IsApplication(err error) bool {
	var app *ApplicationError
	return errors.As(err, &app)
}
