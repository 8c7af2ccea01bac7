package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/pkg/logging"
	"github.com/microshop/platform/pkg/validation"
	"github.com/microshop/platform/services/catalog/internal/domain"
	"github.com/microshop/platform/services/catalog/internal/models"
	"github.com/microshop/platform/services/catalog/internal/transport"
)

type ProductRepo interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error)
	CreateProduct(ctx context.Context, prod *models.Product) error
	UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error)
}

// Index is the optional full-text index. Writes to it are best effort.
type Index interface {
	IndexProduct(ctx context.Context, p models.Product) error
	DeleteProduct(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo   ProductRepo
	Index  Index
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.Repo.GetProduct(ctx, id)
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.ProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	prod := &models.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		return nil, err
	}

	s.index(ctx, *prod)
	s.publish(ctx, domain.ProductEvent(domain.EventProductCreated, *prod))
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req transport.ProductRequest) (*models.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	prod, err := s.Repo.UpdateProduct(ctx, id, req)
	if err != nil {
		return nil, err
	}

	s.index(ctx, *prod)
	s.publish(ctx, domain.ProductEvent(domain.EventProductUpdated, *prod))
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id.String()); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "op", "delete", "product_id", id, "error", err)
		}
	}
	s.publish(ctx, domain.ProductEvent(domain.EventProductDeleted, models.Product{ID: id}))
	return nil
}

// SearchProducts asks the index first and falls back to SQL when there is
// no index or it fails.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "op", "search", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) index(ctx context.Context, p models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "op", "index", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.Publish(ctx, events.TopicProduct, ev); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_error", "type", ev.Type, "error", err)
	}
}
