package middleware

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	loggingmw "github.com/microshop/platform/pkg/middleware/logging"
)

func Common(logger *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(logger),
		ecM.Secure(),
	}
}

// RateLimit limits each client IP to perSecond requests with the given
// burst. Health checks are not limited.
func RateLimit(perSecond float64, burst int) echo.MiddlewareFunc {
	store := ecM.NewRateLimiterMemoryStoreWithConfig(ecM.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return ecM.RateLimiterWithConfig(ecM.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/health/")
		},
		Store: store,
	})
}
