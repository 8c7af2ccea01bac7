package config

import (
	"context"

	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/config"
	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/services/catalog/internal/models"
	"github.com/microshop/platform/services/catalog/internal/search"
)

type ServiceConfig struct {
	config.Config
	SearchIndex string
}

func Load() ServiceConfig {
	config.LoadDotenv(".env", "../../.env")
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalog"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustSecret(cfg.JWTSecret, "JWT_SECRET")

	return ServiceConfig{
		Config:      cfg,
		SearchIndex: config.EnvDefault("ES_INDEX", search.DefaultIndex),
	}
}

func InitDB(ctx context.Context, cfg ServiceConfig) (*gorm.DB, error) {
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb, &models.Product{}); err != nil {
		return nil, err
	}
	return gdb, nil
}

// InitSearch returns nil when ES_URL is not set; search then runs on SQL.
func InitSearch(ctx context.Context, cfg ServiceConfig) (*search.ESIndex, error) {
	if cfg.ESURL == "" {
		return nil, nil
	}
	return search.NewClient(ctx, search.Config{
		URL:      cfg.ESURL,
		Username: cfg.ESUser,
		Password: cfg.ESPassword,
		Index:    cfg.SearchIndex,
	})
}
