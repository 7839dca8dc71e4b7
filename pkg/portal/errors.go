package portal

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches an [*AppError] with status 401: the session cookie
// is missing or expired.
var ErrUnauthorized = errors.New("portal: not logged in")

// AppError is a failure reported by a backend: either a non-2xx response or a
// 2xx response whose body carries "success": false.
type AppError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Message is the backend's error text ("error", "detail" or "message").
	Message string

	// Warning is the backend's "warning" text, if any. The test-generation
	// server uses it for soft failures such as a chapter without material.
	Warning string
}

func (e *AppError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Warning
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("portal: HTTP %d: %s", e.StatusCode, msg)
}

// Is reports whether target is [ErrUnauthorized] and this is a 401.
func (e *AppError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// UserMessage returns the text to show a user: the warning if present, then
// the error message.
func (e *AppError) UserMessage() string {
	if e.Warning != "" {
		return e.Warning
	}
	return e.Message
}
