package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/health"
	middleware "github.com/microshop/platform/pkg/middleware/auth"
)

type Deps struct {
	OrderHandler *OrderHTTP
	Auth         *middleware.BearerAuth
	Ready        []health.Pinger
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	authn := d.Auth.RequireAuth
	orders := e.Group("/api/order")
	orders.GET("", d.OrderHandler.GetOrders, authn)
	orders.GET("/:id", d.OrderHandler.GetOrder, authn)
	orders.POST("", d.OrderHandler.CreateOrder, authn)
	orders.PUT("/:id", d.OrderHandler.UpdateOrder, authn)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder, authn)
}
