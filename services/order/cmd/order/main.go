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

	"github.com/microshop/platform/pkg/db"
	"github.com/microshop/platform/pkg/events"
	"github.com/microshop/platform/pkg/health"
	"github.com/microshop/platform/pkg/logging"
	middleware "github.com/microshop/platform/pkg/middleware/auth"
	loggingmw "github.com/microshop/platform/pkg/middleware/logging"
	"github.com/microshop/platform/pkg/tokens"
	"github.com/microshop/platform/services/order/internal/config"
	"github.com/microshop/platform/services/order/internal/httpserver"
	"github.com/microshop/platform/services/order/internal/repo"
	"github.com/microshop/platform/services/order/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := config.InitDB(ctx, cfg)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("get sql.DB: %v", err)
	}

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	svc := &service.OrderService{Repo: &repo.GormRepo{DB: gdb}, Events: publisher}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler: &httpserver.OrderHTTP{Svc: svc},
		Auth: middleware.NewBearerAuth(tokens.Validator{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}),
		Ready: []health.Pinger{sqlDB},
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server_start", "addr", addr)
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
