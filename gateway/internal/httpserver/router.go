package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/gateway/internal/middleware"
	"github.com/Skotchmaster/till_shop/pkg/middleware/csrf"
	"github.com/Skotchmaster/till_shop/pkg/session"
)

type Deps struct {
	AuthURL    string
	CatalogURL string
	TillURL    string
	SalesURL   string

	CSRFConfig csrf.Config
	JWTSecret  []byte
	Logger     *slog.Logger
}

var writeMethods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func Register(e *echo.Echo, d *Deps) error {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	e.Use(csrf.Middleware(d.CSRFConfig))

	authProxy, err := newProxy(d.AuthURL, "/api/v1")
	if err != nil {
		return err
	}
	catalogProxy, err := newProxy(d.CatalogURL, "/api/v1")
	if err != nil {
		return err
	}
	tillProxy, err := newProxy(d.TillURL, "/api/v1")
	if err != nil {
		return err
	}
	salesProxy, err := newProxy(d.SalesURL, "/api/v1")
	if err != nil {
		return err
	}

	e.Any("/api/v1/auth/*", authProxy)

	api := e.Group("/api/v1", middleware.Authenticate(d.JWTSecret))

	api.GET("/catalog/*", catalogProxy)
	api.Match(writeMethods, "/catalog/*", catalogProxy, middleware.RequireRole(session.RoleOwner))

	api.Any("/till/*", tillProxy, middleware.RequireRole(session.RoleOwner, session.RoleTeller))

	api.GET("/sales/*", salesProxy, middleware.RequireRole(session.RoleOwner))

	return nil
}
