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
	"github.com/microshop/platform/services/catalog/internal/config"
	"github.com/microshop/platform/services/catalog/internal/httpserver"
	"github.com/microshop/platform/services/catalog/internal/repo"
	"github.com/microshop/platform/services/catalog/internal/service"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := config.InitDB(initCtx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		cancel()
		log.Fatalf("get sql.DB: %v", err)
	}

	svc := &service.CatalogService{Repo: &repo.GormRepo{DB: gdb}}

	index, err := config.InitSearch(initCtx, cfg)
	cancel()
	switch {
	case err != nil:
		logger.Warn("search_init_error", "error", err, "fallback", "sql")
	case index != nil:
		svc.Index = index
	}

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers)
	defer publisher.Close()
	svc.Events = publisher

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		Auth: middleware.NewBearerAuth(tokens.Validator{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}),
		Ready: []health.Pinger{sqlDB},
	})

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server_start", "addr", addr, "search_index", svc.Index != nil)
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
