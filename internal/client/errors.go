package client

import (
	"errors"
	"fmt"
)

// ErrNotAuthenticated is returned when no usable session exists: none was
// stored, it expired locally, or the server rejected it.
var ErrNotAuthenticated = errors.New("portal: not authenticated")

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("portal: %d: %s", e.StatusCode, e.Message)
}
