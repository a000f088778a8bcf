package config

import (
	"github.com/Skotchmaster/till_shop/pkg/blob"
	"github.com/Skotchmaster/till_shop/pkg/config"
	"github.com/Skotchmaster/till_shop/services/catalog/internal/search"
)

type ServiceConfig struct {
	config.Config
}

func Load() ServiceConfig {
	cfg := config.Load()
	if cfg.ServiceName == "" {
		cfg.ServiceName = "catalog"
	}

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmpty(cfg.AuthHTTPURL, "AUTH_URL")

	return ServiceConfig{Config: cfg}
}

func (c ServiceConfig) Search() search.Config {
	return search.Config{
		URL:      c.ESURL,
		User:     c.ESUser,
		Password: c.ESPassword,
		Index:    c.ESIndex,
	}
}

// ImagesEnabled reports whether an S3 endpoint or credentials were configured.
func (c ServiceConfig) ImagesEnabled() bool {
	return c.S3Endpoint != "" || c.S3AccessKey != ""
}

func (c ServiceConfig) S3() blob.S3Config {
	return blob.S3Config{
		Bucket:        c.S3Bucket,
		Region:        c.S3Region,
		Endpoint:      c.S3Endpoint,
		AccessKey:     c.S3AccessKey,
		SecretKey:     c.S3SecretKey,
		PublicBaseURL: c.S3PublicBaseURL,
	}
}
