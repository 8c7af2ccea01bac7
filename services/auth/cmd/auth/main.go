package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/pkg/health"
	"github.com/microshop/platform/pkg/logging"
	mw "github.com/microshop/platform/pkg/middleware/auth"
	loggingmw "github.com/microshop/platform/pkg/middleware/logging"
	"github.com/microshop/platform/pkg/tokens"
	"github.com/microshop/platform/services/auth/internal/config"
	"github.com/microshop/platform/services/auth/internal/domain"
	"github.com/microshop/platform/services/auth/internal/httpserver"
	"github.com/microshop/platform/services/auth/internal/repo"
	"github.com/microshop/platform/services/auth/internal/service"
)

type redisPinger struct{ c *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.c.Ping(ctx).Err()
}

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := config.InitDB(initCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}

	accounts := repo.NewGormRepo(gdb)
	if err := accounts.EnsureSeeded(initCtx, domain.DefaultRoles...); err != nil {
		cancel()
		log.Fatalf("seed roles: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		cancel()
		log.Fatalf("get sql.DB: %v", err)
	}
	ready := []health.Pinger{sqlDB}

	var refresh service.RefreshStore
	switch cfg.RefreshStore {
	case "redis":
		client, err := config.InitRedis(initCtx, cfg)
		if err != nil {
			cancel()
			log.Fatalf("redis init error: %v", err)
		}
		defer client.Close()
		refresh = repo.NewRedisRefreshRepo(client, cfg.RefreshTTL)
		ready = append(ready, redisPinger{c: client})
	default:
		refresh = repo.NewRefreshRepo(gdb, cfg.RefreshTTL)
	}
	cancel()

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	svc := &service.AuthService{
		Accounts: accounts,
		Roles:    accounts,
		Refresh:  refresh,
		Signer: tokens.Signer{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
			TTL:      cfg.AccessTTL,
		},
		Events: publisher,
	}

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: svc},
		Auth: mw.NewBearerAuth(tokens.Validator{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}),
		Ready: ready,
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server_start", "addr", addr, "refresh_store", cfg.RefreshStore)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}
}
