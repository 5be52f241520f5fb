package models

import (
	"fmt"
	"net/http"
)

// APIError is an expected failure carrying the HTTP status and the message
// rendered to the client. Err holds the internal cause and is never rendered.
type APIError struct {
	Status  int
	Message string
	Errors  []string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// WithErrors attaches per-field details rendered in the envelope's errors array.
func (e *APIError) WithErrors(details ...string) *APIError {
	e.Errors = append(e.Errors, details...)
	return e
}

// NewAPIError builds an APIError with an optional cause.
func NewAPIError(status int, message string, cause error) *APIError {
	return &APIError{Status: status, Message: message, Err: cause}
}

func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, nil)
}

func Unauthorized(message string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message, nil)
}

func Conflict(message string) *APIError {
	return NewAPIError(http.StatusConflict, message, nil)
}

// Internal hides cause behind a generic message.
func Internal(message string, cause error) *APIError {
	return NewAPIError(http.StatusInternalServerError, message, cause)
}
