package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/pkg/health"
	mw "github.com/microshop/platform/pkg/middleware/auth"
	"github.com/microshop/platform/services/auth/internal/domain"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Auth        *mw.BearerAuth
	Ready       []health.Pinger
}

func Register(e *echo.Echo, d *Deps) {
	health.Register(e, d.Ready...)

	api := e.Group("/api/auth")
	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)

	// Middleware is attached per route. A group with middleware would also
	// guard echo's not-found fallback and turn unknown paths into 401s.
	h, authn := d.AuthHandler, d.Auth.RequireAuth
	admin := d.Auth.RequireRole(domain.RoleAdmin)
	api.POST("/logout", h.LogOut, authn)
	api.GET("/auth", h.Authorized, authn)
	api.GET("/profile", h.Profile, authn)
	api.PUT("/update-profile", h.UpdateProfile, authn)
	api.GET("/admin", h.Authorized, admin)
	api.POST("/roles", h.AssignRole, admin)
}
