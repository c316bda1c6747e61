package scopesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound reports that a looked-up entity does not exist on the server.
var ErrNotFound = errors.New("scopesdk: not found")

// APIError represents a non-2xx response from the server's API.
type APIError struct {
	// Status is the HTTP status code of the response.
	Status int

	// Code is the server's machine-readable error code, e.g. "conflict".
	Code string

	// Message is the server's human-readable description.
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("scopesdk: server returned %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("scopesdk: server returned %d: %s", e.Status, http.StatusText(e.Status))
}

// IsConflict reports whether the error is an APIError carrying HTTP 409,
// the server's response to a create that lost a uniqueness race. Callers
// should treat these as retryable duplicates rather than hard failures.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// parseAPIError builds an *APIError from an error response body. Bodies that
// are not the server's standard error envelope still produce a usable error.
func parseAPIError(status int, body []byte) error {
	var envelope struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &envelope)

	return &APIError{
		Status:  status,
		Code:    envelope.Code,
		Message: envelope.Message,
	}
}
