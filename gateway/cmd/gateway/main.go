package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/gateway/internal/config"
	"github.com/Skotchmaster/till_shop/gateway/internal/httpserver"
	pkgconfig "github.com/Skotchmaster/till_shop/pkg/config"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	"github.com/Skotchmaster/till_shop/pkg/middleware/csrf"
)

func main() {
	pkgconfig.LoadDotenv("gateway/.env", ".env")

	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", "gateway")
	slog.SetDefault(logger)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 30 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	csrfCfg.SkipPaths = []string{
		"/health/live", "/health/ready",
		"/api/v1/auth/login", "/api/v1/auth/register", "/api/v1/auth/refresh",
	}

	if err := httpserver.Register(e, &httpserver.Deps{
		AuthURL:    cfg.AuthURL,
		CatalogURL: cfg.CatalogURL,
		TillURL:    cfg.TillURL,
		SalesURL:   cfg.SalesURL,
		CSRFConfig: csrfCfg,
		JWTSecret:  cfg.JWTSecret,
		Logger:     logger,
	}); err != nil {
		log.Fatal(err)
	}

	go func() {
		logger.Info("gateway listening", "addr", cfg.ListenAddr)
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
	logger.Info("gateway stopped")
}
