package loggingmw

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	"github.com/microshop/platform/pkg/logging"
	authmw "github.com/microshop/platform/pkg/middleware/auth"
)

const completed = "request completed"

type Config struct {
	Logger  *slog.Logger
	Skipper ecM.Skipper

	// Successful requests under these prefixes are logged at debug level.
	QuietPrefixes []string

	Now func() time.Time
}

// RequestLogger logs every request and leaves health checks at debug.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return RequestLoggerWithConfig(Config{Logger: base, QuietPrefixes: []string{"/health/"}})
}

// RequestLoggerWithConfig puts a request-scoped logger into the request
// context and writes one line per completed request. Handler errors are
// rendered here so the logged status is the one the client sees.
func RequestLoggerWithConfig(cfg Config) echo.MiddlewareFunc {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Skipper == nil {
		cfg.Skipper = ecM.DefaultSkipper
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			r := c.Request()
			l := cfg.Logger.With(
				"method", r.Method,
				"route", c.Path(),
				"uri", r.URL.RequestURI(),
				"remote_ip", c.RealIP(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(r.WithContext(logging.IntoContext(r.Context(), l)))

			start := cfg.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			res := c.Response()

			attrs := []any{
				"status", res.Status,
				"latency", cfg.Now().Sub(start),
				"bytes_out", res.Size,
			}
			if uid, ok := c.Get(authmw.CtxUserID).(string); ok {
				attrs = append(attrs, "user_id", uid)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			quiet := hasAnyPrefix(r.URL.Path, cfg.QuietPrefixes)
			l.Log(context.Background(), levelFor(res.Status, quiet), completed, attrs...)
			return nil
		}
	}
}

// requestID prefers the caller's id over one generated by the RequestID
// middleware.
func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func levelFor(status int, quiet bool) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case quiet:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
