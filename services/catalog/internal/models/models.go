package models

import (
	"time"

	"github.com/google/uuid"
)

// Product prices are in minor currency units.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string    `gorm:"size:255;not null;index"   json:"name"`
	Description string    `gorm:"not null;default:''"       json:"description"`
	Price       int64     `gorm:"not null"                  json:"price"`
	Stock       int       `gorm:"not null;default:0"        json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
