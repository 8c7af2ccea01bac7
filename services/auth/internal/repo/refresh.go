package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/models"
)

// RefreshRepo keeps refresh credentials in SQL. Every state change is a
// single conditional UPDATE, so two callers racing on the same token cannot
// both win.
type RefreshRepo struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

func NewRefreshRepo(db *gorm.DB, ttl time.Duration) *RefreshRepo {
	return &RefreshRepo{DB: db, TTL: ttl}
}

func (r *RefreshRepo) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *RefreshRepo) Create(ctx context.Context, accountID uuid.UUID) (models.IssuedRefresh, error) {
	issued, err := r.insert(r.DB.WithContext(ctx), accountID)
	if err != nil {
		return models.IssuedRefresh{}, apperr.Infra(err)
	}
	return issued, nil
}

func (r *RefreshRepo) insert(tx *gorm.DB, accountID uuid.UUID) (models.IssuedRefresh, error) {
	token, err := domain.NewRefreshToken()
	if err != nil {
		return models.IssuedRefresh{}, fmt.Errorf("generate refresh token: %w", err)
	}
	now := r.now()
	exp := now.Add(r.TTL)

	rec := models.RefreshToken{
		TokenHash: domain.HashToken(token),
		AccountID: accountID,
		ExpiresAt: exp.Unix(),
		CreatedAt: now,
	}
	if err := tx.Create(&rec).Error; err != nil {
		return models.IssuedRefresh{}, err
	}
	return models.IssuedRefresh{Token: token, AccountID: accountID, ExpiresAt: time.Unix(exp.Unix(), 0).UTC()}, nil
}

// FindValid returns the record if it exists, is not revoked and has not
// expired.
func (r *RefreshRepo) FindValid(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rec models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token_hash = ?", domain.HashToken(token)).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshNotFound
		}
		return nil, apperr.Infra(err)
	}
	if err := r.check(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Revoke marks a live token revoked. Revoking a dead or unknown token fails
// with an expired-or-revoked error.
func (r *RefreshRepo) Revoke(ctx context.Context, token string) error {
	hash := domain.HashToken(token)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := r.swap(tx, hash, "")
		return err
	})
}

// Rotate revokes the old token and issues a new one for the same account.
// The revoke is a compare-and-swap: exactly one of any number of concurrent
// calls with the same token succeeds.
func (r *RefreshRepo) Rotate(ctx context.Context, token string) (models.IssuedRefresh, error) {
	oldHash := domain.HashToken(token)

	next, err := domain.NewRefreshToken()
	if err != nil {
		return models.IssuedRefresh{}, apperr.Infra(fmt.Errorf("generate refresh token: %w", err))
	}
	nextHash := domain.HashToken(next)

	var issued models.IssuedRefresh
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := r.swap(tx, oldHash, nextHash)
		if err != nil {
			return err
		}

		now := r.now()
		exp := now.Add(r.TTL).Unix()
		created := models.RefreshToken{
			TokenHash: nextHash,
			AccountID: rec.AccountID,
			ExpiresAt: exp,
			CreatedAt: now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return apperr.Infra(err)
		}
		issued = models.IssuedRefresh{Token: next, AccountID: rec.AccountID, ExpiresAt: time.Unix(exp, 0).UTC()}
		return nil
	})
	if err != nil {
		return models.IssuedRefresh{}, err
	}
	return issued, nil
}

// swap flips revoked false->true for a live token and returns the record.
// When the conditional update touches no row the current state of the
// record decides the error.
func (r *RefreshRepo) swap(tx *gorm.DB, hash, replacedBy string) (*models.RefreshToken, error) {
	now := r.now()
	updates := map[string]any{
		"revoked":    true,
		"revoked_at": now,
	}
	if replacedBy != "" {
		updates["replaced_by"] = replacedBy
	}

	res := tx.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = ? AND expires_at > ?", hash, false, now.Unix()).
		Updates(updates)
	if res.Error != nil {
		return nil, apperr.Infra(res.Error)
	}

	var rec models.RefreshToken
	if err := tx.Where("token_hash = ?", hash).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshNotFound
		}
		return nil, apperr.Infra(err)
	}

	if res.RowsAffected != 1 {
		if err := r.check(&rec); err != nil {
			return nil, err
		}
		// lost the race between the update and the read
		return nil, domain.ErrRefreshRevoked
	}
	return &rec, nil
}

func (r *RefreshRepo) check(rec *models.RefreshToken) error {
	switch {
	case rec.Revoked:
		return domain.ErrRefreshRevoked
	case rec.ExpiresAt <= r.now().Unix():
		return domain.ErrRefreshExpired
	}
	return nil
}
