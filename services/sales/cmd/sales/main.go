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

	salescfg "github.com/Skotchmaster/till_shop/services/sales/internal/config"
	"github.com/Skotchmaster/till_shop/services/sales/internal/httpserver"
	"github.com/Skotchmaster/till_shop/services/sales/internal/live"
	"github.com/Skotchmaster/till_shop/services/sales/internal/repo"
	"github.com/Skotchmaster/till_shop/services/sales/internal/service"
)

func main() {
	config.LoadDotenv("services/sales/.env", ".env")

	cfg := salescfg.Load()

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

	hub := live.NewHub()

	consumeCtx, stopConsume := context.WithCancel(logging.IntoContext(context.Background(), logger))
	consumeDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		reader := events.NewTailReader(cfg.KafkaBrokers, events.TopicOrders, cfg.LiveGroupID)
		go func() {
			defer close(consumeDone)
			defer reader.Close()
			if err := events.Consume(consumeCtx, reader, live.Feed(hub)); err != nil {
				logger.Error("order_consumer_stopped", "error", err)
			}
		}()
	} else {
		logger.Warn("kafka_not_configured", "reason", "KAFKA_BROKERS is empty, live feed disabled")
		close(consumeDone)
	}

	svc := &service.SalesService{
		Repo:     repo.New(db),
		Location: cfg.Location,
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		SalesHandler: &httpserver.SalesHTTP{
			Svc:      svc,
			Hub:      hub,
			Upgrader: live.NewUpgrader(cfg.LiveOrigins),
		},
		JWTSecret:  cfg.JWTAccessSecret,
		AuthClient: authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("sales listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	stopConsume()
	<-consumeDone
	hub.Close()
	_ = srv.Shutdown(shutdownCtx)
	pkgdb.Close(db)

	logger.Info("sales stopped")
}
