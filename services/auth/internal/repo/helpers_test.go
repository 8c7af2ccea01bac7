package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb, models.All()...))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return gdb
}

func newSeededRepo(t *testing.T) *GormRepo {
	t.Helper()

	r := NewGormRepo(newTestDB(t))
	require.NoError(t, r.EnsureSeeded(context.Background(), domain.DefaultRoles...))
	return r
}

func newAccount(username string) *models.Account {
	return &models.Account{
		Username:     username,
		Email:        username + "@x.com",
		PasswordHash: "hash",
	}
}
