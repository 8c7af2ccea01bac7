package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/services/catalog/internal/models"
	"github.com/microshop/platform/services/catalog/internal/transport"
)

type GormRepo struct {
	DB *gorm.DB
}

func notFoundOrInfra(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: product", apperr.ErrNotFound)
	}
	return apperr.Infra(err)
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product := models.Product{}
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, notFoundOrInfra(err)
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}

	return total, items, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	if prod.ID == uuid.Nil {
		prod.ID = uuid.New()
	}
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return apperr.Infra(err)
	}
	return nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}

		prod.Name = req.Name
		prod.Description = req.Description
		prod.Price = req.Price
		prod.Stock = req.Stock

		return tx.Save(&prod).Error
	})
	if err != nil {
		return nil, notFoundOrInfra(err)
	}
	return &prod, nil
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return apperr.Infra(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFoundOrInfra(gorm.ErrRecordNotFound)
	}
	return nil
}

// SearchProducts is the SQL fallback used when no search index is
// configured: a case-insensitive substring match on name and description.
func (r *GormRepo) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	where := "LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, pattern, pattern).Count(&total).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Where(where, pattern, pattern).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, apperr.Infra(err)
	}
	return total, items, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
