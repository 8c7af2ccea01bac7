package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/auth/internal/models"
)

// EnsureSeeded creates the named roles that do not exist yet.
func (r *GormRepo) EnsureSeeded(ctx context.Context, names ...string) error {
	for _, n := range names {
		role := models.Role{Name: n}
		err := r.DB.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
			Create(&role).Error
		if err != nil {
			return apperr.Infra(fmt.Errorf("seed role %s: %w", n, err))
		}
	}
	return nil
}

func (r *GormRepo) Exists(ctx context.Context, name string) (bool, error) {
	if name == "" {
		return false, nil
	}
	var n int64
	if err := r.DB.WithContext(ctx).Model(&models.Role{}).Where("name = ?", name).Count(&n).Error; err != nil {
		return false, apperr.Infra(err)
	}
	return n > 0, nil
}

// Assign grants role to the account. Granting a role twice is a no-op.
func (r *GormRepo) Assign(ctx context.Context, accountID uuid.UUID, name string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.Where("name = ?", name).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", apperr.ErrInvalidRole, name)
			}
			return err
		}

		var acc models.Account
		if err := tx.Where("id = ?", accountID).First(&acc).Error; err != nil {
			return err
		}

		var have int64
		if err := tx.Table("account_roles").
			Where("account_id = ? AND role_id = ?", acc.ID, role.ID).
			Count(&have).Error; err != nil {
			return err
		}
		if have > 0 {
			return nil
		}
		return tx.Model(&acc).Association("Roles").Append(&role)
	})
	return classify(err)
}

// RolesOf returns the current role names of the account, sorted by name.
func (r *GormRepo) RolesOf(ctx context.Context, accountID uuid.UUID) ([]string, error) {
	var names []string
	err := r.DB.WithContext(ctx).
		Table("roles").
		Joins("JOIN account_roles ON account_roles.role_id = roles.id").
		Where("account_roles.account_id = ?", accountID).
		Order("roles.name").
		Pluck("roles.name", &names).Error
	if err != nil {
		return nil, apperr.Infra(err)
	}
	return names, nil
}
