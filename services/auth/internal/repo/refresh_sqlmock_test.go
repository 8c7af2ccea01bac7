package repo

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/domain"
)

// The sqlite backed tests serialise everything on one connection. These run
// Rotate against a mocked postgres connection to pin the exact statements.

var (
	casUpdate = `^UPDATE "refresh_tokens" SET .+ WHERE token_hash = \$\d+ AND revoked = \$\d+ AND expires_at > \$\d+$`
	selectRec = `^SELECT \* FROM "refresh_tokens" WHERE token_hash = \$1 ORDER BY "refresh_tokens"\."id" LIMIT .+$`
	insertRec = `^INSERT INTO "refresh_tokens" .+ RETURNING .+$`
)

var refreshColumns = []string{"id", "token_hash", "account_id", "expires_at", "revoked", "revoked_at", "replaced_by", "created_at"}

func newMockRefreshRepo(t *testing.T, now time.Time) (*RefreshRepo, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	r := NewRefreshRepo(gdb, 7*24*time.Hour)
	r.Now = func() time.Time { return now }
	return r, mock
}

func TestRefreshRepo_Rotate_LostSwapIssuesNothing(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "old-refresh-token"
	account := uuid.New()

	tests := []struct {
		name    string
		revoked bool
		expires int64
		want    error
	}{
		// another caller revoked it first
		{name: "already revoked", revoked: true, expires: now.Add(time.Hour).Unix(), want: domain.ErrRefreshRevoked},
		{name: "expired", revoked: false, expires: now.Add(-time.Second).Unix(), want: domain.ErrRefreshExpired},
		// the row reads live but the update matched nothing
		{name: "swap lost", revoked: false, expires: now.Add(time.Hour).Unix(), want: domain.ErrRefreshRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, mock := newMockRefreshRepo(t, now)

			mock.ExpectBegin()
			mock.ExpectExec(casUpdate).
				WithArgs(sqlmock.AnyArg(), true, sqlmock.AnyArg(), domain.HashToken(token), false, now.Unix()).
				WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(selectRec).
				WillReturnRows(sqlmock.NewRows(refreshColumns).
					AddRow(1, domain.HashToken(token), account.String(), tt.expires, tt.revoked, nil, "", now.Add(-time.Hour)))
			mock.ExpectRollback()

			issued, err := r.Rotate(context.Background(), token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, apperr.ErrExpiredOrRevoked)
			assert.Empty(t, issued.Token)

			// an INSERT would be an unexpected call and fail here
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRefreshRepo_Rotate_UnknownToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r, mock := newMockRefreshRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectExec(casUpdate).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectRec).WillReturnRows(sqlmock.NewRows(refreshColumns))
	mock.ExpectRollback()

	_, err := r.Rotate(context.Background(), "never-issued")
	assert.ErrorIs(t, err, domain.ErrRefreshNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRepo_Rotate_WonSwapInsertsSuccessor(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := "old-refresh-token"
	account := uuid.New()
	r, mock := newMockRefreshRepo(t, now)

	mock.ExpectBegin()
	mock.ExpectExec(casUpdate).
		WithArgs(sqlmock.AnyArg(), true, sqlmock.AnyArg(), domain.HashToken(token), false, now.Unix()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectRec).
		WillReturnRows(sqlmock.NewRows(refreshColumns).
			AddRow(1, domain.HashToken(token), account.String(), now.Add(time.Hour).Unix(), true, now, "next", now.Add(-time.Hour)))
	mock.ExpectQuery(insertRec).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectCommit()

	issued, err := r.Rotate(context.Background(), token)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.NotEqual(t, token, issued.Token)
	assert.Equal(t, account, issued.AccountID)
	assert.Equal(t, now.Add(7*24*time.Hour), issued.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRepo_Rotate_UpdateStatementIsConditional(t *testing.T) {
	t.Parallel()

	re := regexp.MustCompile(casUpdate)
	assert.False(t, re.MatchString(`UPDATE "refresh_tokens" SET "revoked"=$1 WHERE token_hash = $2`))
	assert.True(t, re.MatchString(`UPDATE "refresh_tokens" SET "replaced_by"=$1,"revoked"=$2,"revoked_at"=$3 WHERE token_hash = $4 AND revoked = $5 AND expires_at > $6`))
}
