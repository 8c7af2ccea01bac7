package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: fmt.Errorf("%w: email required", ErrValidation), want: http.StatusBadRequest},
		{name: "field validation", err: NewValidationError("email", "email is required"), want: http.StatusBadRequest},
		{name: "conflict", err: fmt.Errorf("%w: username taken", ErrConflict), want: http.StatusBadRequest},
		{name: "invalid role", err: ErrInvalidRole, want: http.StatusBadRequest},
		{name: "authentication", err: ErrAuthentication, want: http.StatusUnauthorized},
		{name: "expired or revoked", err: fmt.Errorf("%w: revoked", ErrExpiredOrRevoked), want: http.StatusUnauthorized},
		{name: "authorization", err: ErrAuthorization, want: http.StatusForbidden},
		{name: "not found", err: ErrNotFound, want: http.StatusNotFound},
		{name: "infrastructure", err: Infra(errors.New("connection refused")), want: http.StatusInternalServerError},
		{name: "unclassified", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestMessage_HidesInfrastructureCause(t *testing.T) {
	t.Parallel()

	err := Infra(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	assert.ErrorIs(t, err, ErrInfrastructure)
	assert.Equal(t, "internal error", Message(err))
}

func TestValidationError_Unwrap(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("register: %w", NewValidationError("password", "password must be at least 6"))
	assert.ErrorIs(t, err, ErrValidation)

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "password must be at least 6", ve.Fields["password"])
}
