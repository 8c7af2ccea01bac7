package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/microshop/platform/pkg/config"
	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/services/auth/internal/models"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	config.LoadDotenv(".env", "../../.env")
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustSecret(cfg.JWTSecret, "JWT_SECRET")
	config.MustOneOf(cfg.RefreshStore, "REFRESH_STORE", "sql", "redis")
	if cfg.RefreshStore == "redis" {
		config.MustNonEmpty(cfg.RedisURL, "REDIS_URL")
	}

	return ServiceConfig{Config: cfg}
}

// InitDB opens the database and migrates the auth schema.
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

// InitRedis connects to REDIS_URL and checks the connection.
func InitRedis(ctx context.Context, cfg ServiceConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
