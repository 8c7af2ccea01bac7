package models

import (
	"time"

	"github.com/google/uuid"
)

const OrderStatusNew = "new"

// OrderItem prices are in minor currency units, captured when ordered.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"      json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"            json:"productId"`
	Quantity  int       `gorm:"not null;check:quantity > 0"   json:"quantity"`
	Price     int64     `gorm:"not null;check:price > 0"      json:"price"`
}

type Order struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"                          json:"id"`
	UserID     uuid.UUID   `gorm:"type:uuid;index;not null"                      json:"userId"`
	OrderDate  time.Time   `gorm:"not null"                                      json:"orderDate"`
	TotalPrice int64       `gorm:"not null"                                      json:"totalPrice"`
	Status     string      `gorm:"size:32;not null"                              json:"status"`
	Items      []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func All() []any {
	return []any{&Order{}, &OrderItem{}}
}
