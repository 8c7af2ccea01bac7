package domain

import (
	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/services/catalog/internal/models"
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
)

func ProductEvent(kind string, p models.Product) events.Event {
	ev := events.Event{
		Type: kind,
		Key:  p.ID.String(),
	}
	if kind != EventProductDeleted {
		ev.Data = map[string]any{
			"name":  p.Name,
			"price": p.Price,
			"stock": p.Stock,
		}
	}
	return ev
}
