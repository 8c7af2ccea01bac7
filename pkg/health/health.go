package health

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Register mounts /health/live and /health/ready on e. Readiness pings every
// dependency in deps.
func Register(e *echo.Echo, deps ...Pinger) {
	e.GET("/health/live", Live)
	e.GET("/health/ready", Ready(deps...))
}

func Live(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func Ready(deps ...Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		for _, d := range deps {
			if err := d.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	}
}
