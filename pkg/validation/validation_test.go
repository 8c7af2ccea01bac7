package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/platform/pkg/apperr"
)

type signup struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestStruct_Valid(t *testing.T) {
	t.Parallel()

	require.NoError(t, Struct(signup{Username: "alice", Email: "a@x.com", Password: "secret1"}))
}

func TestStruct_FieldErrors(t *testing.T) {
	t.Parallel()

	err := Struct(signup{Username: "", Email: "not-an-email", Password: "123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var ve *apperr.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "username is required", ve.Fields["username"])
	assert.Equal(t, "email must be a valid email", ve.Fields["email"])
	assert.Equal(t, "password must be at least 6", ve.Fields["password"])
}
