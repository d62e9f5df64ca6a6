package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound      = errors.New("backend: resource not found")
	ErrAlreadyExists = errors.New("backend: record already exists")
	ErrUnauthorized  = errors.New("backend: unauthorized")
	ErrTransport     = errors.New("backend: transport failure")
)

// APIError is a failure reported by the backend, either through a non-2xx
// HTTP status or through the envelope's statusCode/result fields.
type APIError struct {
	StatusCode int
	Message    string

	// emptyResult is set when a success status carried no result.
	emptyResult bool
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.StatusCode, e.Message)
}

// Is lets callers match the sentinel errors with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || e.emptyResult
	case ErrAlreadyExists:
		return e.StatusCode == http.StatusConflict || isAlreadyExistsMessage(e.Message)
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

func isAlreadyExistsMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "already exist")
}

// Message returns the backend's own message for err when it carried one.
func Message(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message, true
	}
	return "", false
}
