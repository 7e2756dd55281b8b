package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBadServerURL reports a server address that cannot be turned into an HTTP endpoint.
	ErrBadServerURL = errors.New("backend: bad server url")
	// ErrUnhealthy reports a health endpoint answering with a non-2xx status.
	ErrUnhealthy = errors.New("backend: unhealthy")
)

// RequestError describes a failed backend call.
type RequestError struct {
	Method   string
	Endpoint string
	// Status is 0 when no response was received.
	Status int
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend %s %s: status %d: %v", e.Method, e.Endpoint, e.Status, e.Err)
	}
	return fmt.Sprintf("backend %s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// permanent reports errors that retrying cannot fix.
func permanent(err error) bool {
	if errors.Is(err, ErrBadServerURL) {
		return true
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status >= http.StatusBadRequest && reqErr.Status < http.StatusInternalServerError &&
			reqErr.Status != http.StatusTooManyRequests
	}
	return false
}
