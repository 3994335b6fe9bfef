package model

import (
	"fmt"
	"net/http"
)

// APIError is a rejection returned by the directory API. Reason is the
// API-level reason code when the body carried one, otherwise the HTTP status
// text. Content holds the raw response body for diagnostics.
type APIError struct {
	Status  int
	Reason  string
	Message string
	Content string
	// Err optionally links a port-level sentinel such as driven.ErrNotFound.
	Err error
}

func (e *APIError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = http.StatusText(e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("directory api: %d %s: %s", e.Status, reason, e.Message)
	}
	return fmt.Sprintf("directory api: %d %s", e.Status, reason)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
