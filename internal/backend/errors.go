package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-success response from the back-end.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

// NotFound reports whether the back-end answered 404.
func (e *APIError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Unauthorized reports whether the token was missing or rejected.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

func newAPIError(status int, env envelope, raw string) *APIError {
	msg := env.Error
	if msg == "" {
		msg = env.Message
	}
	if msg == "" {
		msg = raw
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{Status: status, Message: msg}
}

// IsUnauthorized reports whether err carries a 401 from the back-end.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
