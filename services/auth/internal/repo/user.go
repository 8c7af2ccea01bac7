package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/models"
)

// CreateWithRole inserts the account and grants it role in one transaction.
// Nothing is written when the role does not exist or the username or email
// is taken.
func (r *GormRepo) CreateWithRole(ctx context.Context, acc *models.Account, role string) error {
	if acc.ID == uuid.Nil {
		acc.ID = uuid.New()
	}
	acc.SetIdentity(acc.Username, acc.Email)

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rl models.Role
		if err := tx.Where("name = ?", role).First(&rl).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", apperr.ErrInvalidRole, role)
			}
			return err
		}

		var taken int64
		if err := tx.Model(&models.Account{}).
			Where("normalized_username = ? OR normalized_email = ?", acc.NormalizedUsername, acc.NormalizedEmail).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: username or email already exists", apperr.ErrConflict)
		}

		if err := tx.Omit("Roles").Create(acc).Error; err != nil {
			return err
		}
		if err := tx.Model(acc).Association("Roles").Append(&rl); err != nil {
			return err
		}
		acc.Roles = []models.Role{rl}
		return nil
	})
	return classify(err)
}

// ByUsername matches case-insensitively.
func (r *GormRepo) ByUsername(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).
		Where("normalized_username = ?", models.Normalize(username)).
		First(&acc).Error; err != nil {
		return nil, classify(err)
	}
	return &acc, nil
}

func (r *GormRepo) ByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var acc models.Account
	if err := r.DB.WithContext(ctx).Preload("Roles").Where("id = ?", id).First(&acc).Error; err != nil {
		return nil, classify(err)
	}
	return &acc, nil
}

// UpdateProfile overwrites username, email and address of the account.
func (r *GormRepo) UpdateProfile(ctx context.Context, id uuid.UUID, username, email string, address *string) (*models.Account, error) {
	var acc models.Account
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&acc).Error; err != nil {
			return err
		}

		var taken int64
		if err := tx.Model(&models.Account{}).
			Where("id <> ? AND (normalized_username = ? OR normalized_email = ?)",
				id, models.Normalize(username), models.Normalize(email)).
			Count(&taken).Error; err != nil {
			return err
		}
		if taken > 0 {
			return fmt.Errorf("%w: username or email already exists", apperr.ErrConflict)
		}

		acc.SetIdentity(username, email)
		acc.Address = address
		return tx.Model(&acc).
			Select("Username", "NormalizedUsername", "Email", "NormalizedEmail", "Address").
			Updates(&acc).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &acc, nil
}

// classify maps gorm errors onto the apperr taxonomy. Errors that already
// carry a class pass through.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", apperr.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	case errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrInvalidRole),
		errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrExpiredOrRevoked):
		return err
	default:
		return apperr.Infra(err)
	}
}
