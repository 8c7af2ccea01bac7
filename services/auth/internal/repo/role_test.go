package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/models"
)

func TestGormRepo_EnsureSeeded_Idempotent(t *testing.T) {
	t.Parallel()

	r := newSeededRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureSeeded(ctx, domain.DefaultRoles...))

	var n int64
	require.NoError(t, r.DB.Model(&models.Role{}).Count(&n).Error)
	assert.EqualValues(t, 3, n)

	for _, name := range []string{"Admin", "User", "Guest"} {
		ok, err := r.Exists(ctx, name)
		require.NoError(t, err)
		assert.True(t, ok, name)
	}

	ok, err := r.Exists(ctx, "Root")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.Exists(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormRepo_Assign(t *testing.T) {
	t.Parallel()

	r := newSeededRepo(t)
	ctx := context.Background()
	acc := newAccount("alice")
	require.NoError(t, r.CreateWithRole(ctx, acc, "User"))

	require.NoError(t, r.Assign(ctx, acc.ID, "Admin"))
	require.NoError(t, r.Assign(ctx, acc.ID, "Admin"))

	roles, err := r.RolesOf(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin", "User"}, roles)

	assert.ErrorIs(t, r.Assign(ctx, acc.ID, "Root"), apperr.ErrInvalidRole)
	assert.ErrorIs(t, r.Assign(ctx, uuid.New(), "Admin"), apperr.ErrNotFound)
}

func TestGormRepo_RolesOf_Unknown(t *testing.T) {
	t.Parallel()

	r := newSeededRepo(t)
	roles, err := r.RolesOf(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, roles)
}
