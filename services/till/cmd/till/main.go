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
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/till_shop/internal/models"
	"github.com/Skotchmaster/till_shop/pkg/authclient"
	"github.com/Skotchmaster/till_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/till_shop/pkg/db"
	"github.com/Skotchmaster/till_shop/pkg/events"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/till_shop/pkg/middleware/logging"

	"github.com/Skotchmaster/till_shop/services/till/internal/checkout"
	tillcfg "github.com/Skotchmaster/till_shop/services/till/internal/config"
	"github.com/Skotchmaster/till_shop/services/till/internal/httpserver"
	"github.com/Skotchmaster/till_shop/services/till/internal/repo"
	"github.com/Skotchmaster/till_shop/services/till/internal/service"
	"github.com/Skotchmaster/till_shop/services/till/internal/store"
)

func main() {
	config.LoadDotenv("services/till/.env", ".env")

	cfg := tillcfg.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var registers checkout.Store
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		registers = store.NewRedisStore(rdb, cfg.SessionTTL)
	} else {
		logger.Warn("redis_not_configured", "reason", "REDIS_URL is empty, registers kept in memory")
		registers = store.NewMemoryStore()
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	r := repo.New(db)
	svc := &service.TillService{
		Store: registers,
		Repo:  r,
		Committer: &checkout.Committer{
			Stock:  r,
			Orders: r,
			Events: publisher,
		},
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		TillHandler: &httpserver.TillHTTP{Svc: svc},
		JWTSecret:   cfg.JWTAccessSecret,
		AuthClient:  authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("till listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	pkgdb.Close(db)

	logger.Info("till stopped")
}
