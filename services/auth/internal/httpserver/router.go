package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/till_shop/pkg/middleware/auth"
)

type Deps struct {
	AuthHandler *AuthHTTP
	JWTSecret   []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	// auth is the refresh endpoint itself, so expired access tokens are not
	// refreshed from here.
	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, nil)

	g := e.Group("/auth")
	g.POST("/register", d.AuthHandler.Register)
	g.POST("/login", d.AuthHandler.Login)
	g.POST("/refresh", d.AuthHandler.Refresh)
	g.POST("/logout", d.AuthHandler.LogOut)

	g.GET("/me", d.AuthHandler.Me, authMW.RequireAuth)
	g.GET("/tellers", d.AuthHandler.Tellers, authMW.RequireOwner)
}
