package config

import (
	"github.com/Skotchmaster/till_shop/pkg/config"
)

type Config struct {
	ListenAddr string
	LogLevel   string

	AuthURL    string
	CatalogURL string
	TillURL    string
	SalesURL   string

	JWTSecret []byte

	CookieSecure bool
}

func Load() *Config {
	cfg := &Config{
		ListenAddr:   config.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:     config.EnvDefault("LOG_LEVEL", "info"),
		AuthURL:      config.EnvDefault("AUTH_URL", ""),
		CatalogURL:   config.EnvDefault("CATALOG_URL", ""),
		TillURL:      config.EnvDefault("TILL_URL", ""),
		SalesURL:     config.EnvDefault("SALES_URL", ""),
		JWTSecret:    []byte(config.EnvDefault("JWT_SECRET", "")),
		CookieSecure: config.EnvDefault("COOKIE_SECURE", "false") == "true",
	}

	config.MustNonEmpty(cfg.AuthURL, "AUTH_URL")
	config.MustNonEmpty(cfg.CatalogURL, "CATALOG_URL")
	config.MustNonEmpty(cfg.TillURL, "TILL_URL")
	config.MustNonEmpty(cfg.SalesURL, "SALES_URL")
	config.MustNonEmptyBytes(cfg.JWTSecret, "JWT_SECRET")
	return cfg
}
