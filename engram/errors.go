package engram

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for configuration and request validation.
var (
	// ErrMissingBaseURL indicates no backend URL was configured.
	ErrMissingBaseURL = errors.New("engram: base URL is required")

	// ErrInvalidBaseURL indicates the configured backend URL does not parse.
	ErrInvalidBaseURL = errors.New("engram: base URL is invalid")

	// ErrMissingCredentials indicates neither an API key nor a token
	// source was configured.
	ErrMissingCredentials = errors.New("engram: API key or credentials required")

	// ErrMissingID indicates a call that addresses a resource was given
	// an empty id.
	ErrMissingID = errors.New("engram: id is required")

	// ErrMissingField indicates a required request field was empty.
	ErrMissingField = errors.New("engram: required field missing")
)

// Backend outcome sentinels. They never occur directly; APIError
// reports them through errors.Is so callers can branch without looking
// at status codes.
var (
	// ErrNotFound indicates the addressed resource does not exist.
	ErrNotFound = errors.New("engram: not found")

	// ErrConflict indicates the request lost a write conflict.
	ErrConflict = errors.New("engram: conflict")

	// ErrRateLimited indicates the backend itself shed the request.
	ErrRateLimited = errors.New("engram: rate limited by backend")

	// ErrUnauthorized indicates the credentials were rejected.
	ErrUnauthorized = errors.New("engram: unauthorized")
)

// APIError is a decoded error response from the Engram backend.
type APIError struct {
	// Status is the HTTP status code.
	Status int `json:"-"`

	// Code is the backend's machine-readable error code, when present.
	Code string `json:"code,omitempty"`

	// Message is the human-readable error description.
	Message string `json:"message"`

	// RequestID identifies the failed request for support lookups. It
	// echoes the backend's value when returned, otherwise the
	// client-generated X-Request-Id.
	RequestID string `json:"request_id,omitempty"`
}

// Error returns the error string.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("engram: %s (%s, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("engram: %s (status %d)", e.Message, e.Status)
}

// Is maps backend status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}
