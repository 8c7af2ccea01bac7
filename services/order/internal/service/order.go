package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/microshop/platform/pkg/apperr"
	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/pkg/logging"
	"github.com/microshop/platform/pkg/validation"
	"github.com/microshop/platform/services/order/internal/domain"
	"github.com/microshop/platform/services/order/internal/models"
	"github.com/microshop/platform/services/order/internal/transport"
)

type OrderRepo interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID *uuid.UUID, offset, limit int) (int64, []models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, mutate func(*models.Order) error) (*models.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// Caller is the authenticated account an operation runs for. Admins see
// every order; everyone else only their own.
type Caller struct {
	ID    uuid.UUID
	Admin bool
}

func (c Caller) owns(o *models.Order) bool {
	return c.Admin || o.UserID == c.ID
}

type OrderService struct {
	Repo   OrderRepo
	Events events.Publisher
	Now    func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func toItems(req []transport.OrderItemRequest) []models.OrderItem {
	items := make([]models.OrderItem, len(req))
	for i, it := range req {
		items[i] = models.OrderItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		}
	}
	return items
}

func (s *OrderService) CreateOrder(ctx context.Context, caller Caller, req transport.OrderRequest) (*models.Order, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	items := domain.MergeItems(nil, toItems(req.Items))
	order := &models.Order{
		ID:         uuid.New(),
		UserID:     caller.ID,
		OrderDate:  s.now(),
		Status:     models.OrderStatusNew,
		Items:      items,
		TotalPrice: domain.Total(items),
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEvent(domain.EventOrderCreated, *order))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, caller Caller, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.owns(order) {
		return nil, apperr.ErrNotFound
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, caller Caller, offset, limit int) (int64, []models.Order, error) {
	if caller.Admin {
		return s.Repo.ListOrders(ctx, nil, offset, limit)
	}
	return s.Repo.ListOrders(ctx, &caller.ID, offset, limit)
}

// UpdateOrder merges the requested items into the order by product and
// recomputes the total.
func (s *OrderService) UpdateOrder(ctx context.Context, caller Caller, id uuid.UUID, req transport.OrderRequest) (*models.Order, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	order, err := s.Repo.UpdateOrder(ctx, id, func(o *models.Order) error {
		if !caller.owns(o) {
			return apperr.ErrNotFound
		}
		o.Items = domain.MergeItems(o.Items, toItems(req.Items))
		if len(o.Items) > domain.MaxOrderItems {
			return apperr.NewValidationError("orderItems",
				fmt.Sprintf("orderItems must be at most %d products", domain.MaxOrderItems))
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		o.TotalPrice = domain.Total(o.Items)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.OrderEvent(domain.EventOrderUpdated, *order))
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, caller Caller, id uuid.UUID) error {
	order, err := s.GetOrder(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, domain.OrderEvent(domain.EventOrderDeleted, *order))
	return nil
}

func (s *OrderService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.Events.Publish(ctx, events.TopicOrder, ev); err != nil {
		logging.FromContext(ctx).Warn("kafka_publish_error", "type", ev.Type, "error", err)
	}
}
