package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/order/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, apperr.ErrNotFound), errors.Is(err, apperr.ErrValidation):
		return err
	default:
		return apperr.Infra(err)
	}
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return apperr.Infra(err)
	}
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error
	if err != nil {
		return nil, classify(err)
	}
	return &order, nil
}

// ListOrders returns orders newest first. A nil userID lists every order.
func (r *GormRepo) ListOrders(ctx context.Context, userID *uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Preload("Items").Order("order_date DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}
	return total, orders, nil
}

// UpdateOrder loads the order under a row lock, lets mutate change it and
// saves the order together with its items.
func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, mutate func(*models.Order) error) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&order).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Order("product_id").Find(&order.Items).Error; err != nil {
			return err
		}
		if err := mutate(&order); err != nil {
			return err
		}
		return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(&order).Error
	})
	if err != nil {
		return nil, classify(err)
	}
	return &order, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return apperr.Infra(err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return apperr.Infra(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.ErrNotFound
		}
		return nil
	})
}
