package config

import (
	"context"

	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/config"
	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/services/order/internal/models"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	config.LoadDotenv(".env", "../../.env")
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "order"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustSecret(cfg.JWTSecret, "JWT_SECRET")

	return ServiceConfig{Config: cfg}
}

func InitDB(ctx context.Context, cfg ServiceConfig) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb, models.All()...); err != nil {
		return nil, err
	}
	return gdb, nil
}
