package transport

import "github.com/google/uuid"

type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity"  validate:"gte=1,max=10000"`
	Price     int64     `json:"price"     validate:"gt=0,max=100000000000"`
}

type OrderRequest struct {
	Items []OrderItemRequest `json:"orderItems" validate:"required,min=1,max=100,dive"`
}
