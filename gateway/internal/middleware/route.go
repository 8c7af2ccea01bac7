package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/gateway/internal/config"
	authmw "github.com/microshop/platform/pkg/middleware/auth"
)

// ForRoute returns the credential checks a route asks for, if any.
func ForRoute(auth *authmw.BearerAuth, r config.Route) []echo.MiddlewareFunc {
	switch {
	case auth == nil || !r.Auth:
		return nil
	case len(r.Roles) > 0:
		return []echo.MiddlewareFunc{auth.RequireRole(r.Roles...)}
	default:
		return []echo.MiddlewareFunc{auth.RequireAuth}
	}
}
