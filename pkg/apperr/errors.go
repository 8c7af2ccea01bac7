// Package apperr holds the error classes shared by every service. Services
// wrap these sentinels with fmt.Errorf("%w: ...") and handlers map them to
// HTTP status codes with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation       = errors.New("validation")                       // 400
	ErrConflict         = errors.New("conflict")                         // 400
	ErrInvalidRole      = errors.New("invalid or non-existing role")     // 400
	ErrAuthentication   = errors.New("invalid username or password")     // 401
	ErrExpiredOrRevoked = errors.New("invalid or expired refresh token") // 401
	ErrAuthorization    = errors.New("forbidden")                        // 403
	ErrNotFound         = errors.New("not found")                        // 404
	ErrInfrastructure   = errors.New("internal error")                   // 500
)

// ValidationError carries field-level detail for malformed input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: msg},
	}
}

// Infra wraps a persistence or signing failure so that it classifies as
// ErrInfrastructure while keeping the cause for logs.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrInfrastructure, err)
}

// Status maps an error to the HTTP status code of its class.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication),
		errors.Is(err, ErrExpiredOrRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing text for an error. Infrastructure
// failures never leak their cause.
func Message(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.Is(err, ErrConflict):
		return "username or email already exists"
	case errors.Is(err, ErrInvalidRole):
		return ErrInvalidRole.Error()
	case errors.Is(err, ErrAuthentication):
		return ErrAuthentication.Error()
	case errors.Is(err, ErrExpiredOrRevoked):
		return ErrExpiredOrRevoked.Error()
	case errors.Is(err, ErrAuthorization):
		return "you don't have enough rights"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrValidation):
		return "invalid body"
	default:
		return ErrInfrastructure.Error()
	}
}
