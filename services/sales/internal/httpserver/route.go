package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/pkg/authclient"
	middleware "github.com/Skotchmaster/till_shop/pkg/middleware/auth"
)

type Deps struct {
	SalesHandler *SalesHTTP
	JWTSecret    []byte
	AuthClient   *authclient.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	sales := e.Group("/sales", authMW.RequireOwner)
	sales.GET("/orders", d.SalesHandler.ListOrders)
	sales.GET("/orders/:id", d.SalesHandler.GetOrder)
	sales.GET("/summary", d.SalesHandler.Summary)
	sales.GET("/dashboard", d.SalesHandler.Dashboard)
	sales.GET("/live", d.SalesHandler.Live)
}
