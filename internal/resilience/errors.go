package resilience

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrOffline is returned without contacting the backend when the network
// is known to be down.
var ErrOffline = errors.New("no connectivity")

// Error is the structured failure returned by wrapped operations once
// retries are exhausted or the failure is not retryable.
type Error struct {
	Op       string
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", e.Op, e.Kind, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode exposes the kind to the API error mapper.
func (e *Error) ErrorCode() string {
	if errors.Is(e.Err, ErrOffline) {
		return "OFFLINE"
	}
	return string(e.Kind)
}

// StatusCode exposes the HTTP status for the kind.
func (e *Error) StatusCode() int {
	if errors.Is(e.Err, ErrOffline) {
		return http.StatusServiceUnavailable
	}
	return e.Kind.HTTPStatus()
}
