package config

import (
	"time"

	"github.com/Skotchmaster/till_shop/pkg/config"
)

type ServiceConfig struct {
	config.Config
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "auth"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	return ServiceConfig{
		Config:     cfg,
		AccessTTL:  time.Duration(config.EnvIntDefault("ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL: time.Duration(config.EnvIntDefault("REFRESH_TTL_HOURS", 7*24)) * time.Hour,
	}
}
