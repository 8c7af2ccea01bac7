package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/microshop/platform/gateway/internal/config"
	"github.com/microshop/platform/gateway/internal/middleware"
	"github.com/microshop/platform/pkg/health"
	authmw "github.com/microshop/platform/pkg/middleware/auth"
)

var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

type Deps struct {
	Routes    []config.Route
	Auth      *authmw.BearerAuth
	Logger    *slog.Logger
	RateLimit float64
	RateBurst int
	// Transport defaults to a pooled http.Transport.
	Transport http.RoundTripper
}

func Register(e *echo.Echo, d *Deps) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, m := range middleware.Common(logger) {
		e.Use(m)
	}
	if d.RateLimit > 0 {
		e.Use(middleware.RateLimit(d.RateLimit, d.RateBurst))
	}

	transport := d.Transport
	if transport == nil {
		transport = newTransport()
	}

	ready := make([]health.Pinger, 0, len(d.Routes))
	for _, r := range d.Routes {
		if r.Auth && d.Auth == nil {
			return fmt.Errorf("route %q needs auth but no validator is configured", r.Name)
		}

		proxy, err := newProxy(r, transport)
		if err != nil {
			return fmt.Errorf("route %q: %w", r.Name, err)
		}

		methods := r.Methods
		if len(methods) == 0 {
			methods = allMethods
		}
		mws := middleware.ForRoute(d.Auth, r)
		e.Match(methods, r.Prefix, proxy, mws...)
		e.Match(methods, r.Prefix+"/*", proxy, mws...)

		ready = append(ready, &upstreamPinger{base: r.Upstream, client: &http.Client{Transport: transport}})
	}

	health.Register(e, ready...)
	return nil
}
