package domain

import (
	"github.com/google/uuid"

	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/services/order/internal/models"
)

const (
	EventOrderCreated = "order_created"
	EventOrderUpdated = "order_updated"
	EventOrderDeleted = "order_deleted"
)

// MaxOrderItems caps the lines of one order. Together with the request bounds
// on quantity and price it keeps Total well inside int64.
const MaxOrderItems = 100

// MergeItems applies updates to items keyed by product: a known product
// takes the new quantity and price, an unknown one is appended. Items not
// named in updates are kept.
func MergeItems(items, updates []models.OrderItem) []models.OrderItem {
	pos := make(map[uuid.UUID]int, len(items))
	for i, it := range items {
		pos[it.ProductID] = i
	}

	for _, u := range updates {
		if i, ok := pos[u.ProductID]; ok {
			items[i].Quantity = u.Quantity
			items[i].Price = u.Price
			continue
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		pos[u.ProductID] = len(items)
		items = append(items, u)
	}
	return items
}

func Total(items []models.OrderItem) int64 {
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Quantity)
	}
	return total
}

func OrderEvent(kind string, o models.Order) events.Event {
	ev := events.Event{
		Type: kind,
		Key:  o.ID.String(),
		Data: map[string]any{"userId": o.UserID.String()},
	}
	if kind != EventOrderDeleted {
		ev.Data["totalPrice"] = o.TotalPrice
		ev.Data["items"] = len(o.Items)
	}
	return ev
}
