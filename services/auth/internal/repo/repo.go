package repo

import (
	"gorm.io/gorm"
)

// GormRepo is the account store and role directory.
type GormRepo struct {
	DB *gorm.DB
}

func NewGormRepo(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}
