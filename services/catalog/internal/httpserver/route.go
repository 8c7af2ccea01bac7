package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/health"
	middleware "github.com/microshop/platform/pkg/middleware/auth"
)

type Deps struct {
	CatalogHandler *CatalogHTTP
	Auth           *middleware.BearerAuth
	Ready          []health.Pinger
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	products := e.Group("/api/product")
	products.GET("", d.CatalogHandler.GetProducts)
	products.GET("/search", d.CatalogHandler.SearchProducts)

	admin := d.Auth.RequireRole("Admin")
	products.GET("/:id", d.CatalogHandler.GetProduct, admin)
	products.POST("", d.CatalogHandler.CreateProduct, admin)
	products.PUT("/:id", d.CatalogHandler.UpdateProduct, admin)
	products.DELETE("/:id", d.CatalogHandler.DeleteProduct, admin)
}
