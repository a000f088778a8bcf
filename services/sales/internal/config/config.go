package config

import (
	"log"
	"os"
	"time"

	"github.com/Skotchmaster/till_shop/pkg/config"
)

type ServiceConfig struct {
	config.Config

	// Location decides where a sales day starts.
	Location *time.Location
	// LiveOrigins restricts websocket origins; empty allows any.
	LiveOrigins []string
	LiveGroupID string
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "sales"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	loc, err := time.LoadLocation(config.EnvDefault("SALES_TIMEZONE", "UTC"))
	if err != nil {
		log.Fatalf("SALES_TIMEZONE: %v", err)
	}

	// One consumer group per replica.
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		host, _ := os.Hostname()
		groupID = "sales-live-" + host
	}

	return ServiceConfig{
		Config:      cfg,
		Location:    loc,
		LiveOrigins: config.CSV(os.Getenv("LIVE_ALLOWED_ORIGINS")),
		LiveGroupID: groupID,
	}
}
