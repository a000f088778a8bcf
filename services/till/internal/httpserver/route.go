package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/pkg/authclient"
	middleware "github.com/Skotchmaster/till_shop/pkg/middleware/auth"
)

type Deps struct {
	TillHandler *TillHTTP
	JWTSecret   []byte
	AuthClient  *authclient.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	till := e.Group("/till", authMW.RequireAuth)
	till.GET("/products", d.TillHandler.Products)

	till.GET("/cart", d.TillHandler.GetCart)
	till.DELETE("/cart", d.TillHandler.ClearCart)
	till.POST("/cart/items", d.TillHandler.AddItem)
	till.PATCH("/cart/items/:id", d.TillHandler.UpdateItem)
	till.DELETE("/cart/items/:id", d.TillHandler.RemoveItem)
	till.PUT("/cart/payment-method", d.TillHandler.SetPaymentMethod)

	till.POST("/checkout", d.TillHandler.RequestCheckout)
	till.DELETE("/checkout", d.TillHandler.CancelCheckout)
	till.POST("/checkout/confirm", d.TillHandler.ConfirmCheckout)
}
