package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by the client core and the backend.
// Callers match with errors.Is; specific errors below wrap one of these.
var (
	ErrValidation   = errors.New("validation failed")
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")

	// ErrVotePending is returned when a vote is attempted while another vote
	// for the same issue is still in flight. Nothing is mutated or sent.
	ErrVotePending = errors.New("vote already in progress")
)

// Auth codes carried in the error envelope of 401 responses.
const (
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
)

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// APIError is a non-2xx response from the backend, decoded from the
// {"error": {"code", "message"}} envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps the HTTP status onto the taxonomy.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity:
		return ErrValidation
	case e.Status == http.StatusUnauthorized:
		return ErrAuthRequired
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	default:
		return ErrServer
	}
}

// domainError is a named error that still matches its taxonomy class.
type domainError struct {
	msg   string
	class error
}

func (e *domainError) Error() string { return e.msg }
func (e *domainError) Unwrap() error { return e.class }

func newDomainError(class error, msg string) error {
	return &domainError{msg: msg, class: class}
}
