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
	"github.com/Skotchmaster/till_shop/pkg/blob"
	"github.com/Skotchmaster/till_shop/pkg/config"
	pkgdb "github.com/Skotchmaster/till_shop/pkg/db"
	"github.com/Skotchmaster/till_shop/pkg/events"
	"github.com/Skotchmaster/till_shop/pkg/logging"
	loggingmw "github.com/Skotchmaster/till_shop/pkg/middleware/logging"

	catalogcfg "github.com/Skotchmaster/till_shop/services/catalog/internal/config"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/httpserver"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/repo"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/search"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/service"
)

func main() {
	config.LoadDotenv("services/catalog/.env", ".env")

	cfg := catalogcfg.Load()

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

	index, err := search.New(cfg.Search())
	if err != nil {
		logger.Warn("search_unavailable", "reason", "elasticsearch ping failed, using database search", "error", err)
		index = search.Nop{}
	}

	var images blob.Store
	if cfg.ImagesEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		s3store, err := blob.NewS3(ctx, cfg.S3())
		cancel()
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		images = s3store
	} else {
		logger.Warn("images_not_configured", "reason", "S3_ENDPOINT and S3_ACCESS_KEY are empty")
	}

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	svc := &service.CatalogService{
		Repo:   repo.New(db),
		Index:  index,
		Images: images,
		Events: publisher,
	}

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler: &httpserver.CatalogHTTP{Svc: svc},
		JWTSecret:      cfg.JWTAccessSecret,
		AuthClient:     authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("catalog listening", "addr", srv.Addr)
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

	logger.Info("catalog stopped")
}
