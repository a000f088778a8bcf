package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/till_shop/pkg/authclient"
	middleware "github.com/Skotchmaster/till_shop/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	JWTSecret      []byte
	AuthClient     *authclient.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	products := e.Group("/catalog/products")
	products.GET("", d.CatalogHandler.GetProducts, authMW.RequireAuth)
	products.GET("/search", d.CatalogHandler.SearchProducts, authMW.RequireAuth)
	products.GET("/categories", d.CatalogHandler.Categories, authMW.RequireAuth)
	products.GET("/:id", d.CatalogHandler.GetProduct, authMW.RequireAuth)

	owner := products.Group("", authMW.RequireOwner)
	owner.GET("/export", d.CatalogHandler.ExportProducts)
	owner.POST("", d.CatalogHandler.CreateProduct)
	owner.POST("/reindex", d.CatalogHandler.Reindex)
	owner.PATCH("/:id", d.CatalogHandler.PatchProduct)
	owner.DELETE("/:id", d.CatalogHandler.DeleteProduct)

	e.POST("/catalog/images", d.CatalogHandler.UploadImage, authMW.RequireOwner)
}
