package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/gateway/internal/config"
	"github.com/microshop/platform/gateway/internal/httpserver"
	"github.com/microshop/platform/pkg/logging"
	authmw "github.com/microshop/platform/pkg/middleware/auth"
	"github.com/microshop/platform/pkg/tokens"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel).With("service", "gateway")

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	var auth *authmw.BearerAuth
	if len(cfg.JWTSecret) > 0 {
		auth = authmw.NewBearerAuth(tokens.Validator{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		})
	}

	if err := httpserver.Register(e, &httpserver.Deps{
		Routes:    cfg.Routes,
		Auth:      auth,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}); err != nil {
		log.Fatal(err)
	}

	go func() {
		logger.Info("server_start", "addr", cfg.ListenAddr, "routes", len(cfg.Routes))
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
