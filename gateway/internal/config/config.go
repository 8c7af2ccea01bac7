package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/microshop/platform/pkg/config"
)

// Route maps every request under Prefix to Upstream. With Auth set the
// gateway checks the bearer credential before forwarding; Roles narrows
// that to accounts holding at least one of them.
type Route struct {
	Name        string   `yaml:"name"`
	Prefix      string   `yaml:"prefix"`
	Upstream    string   `yaml:"upstream"`
	StripPrefix string   `yaml:"strip_prefix"`
	Methods     []string `yaml:"methods"`
	Auth        bool     `yaml:"auth"`
	Roles       []string `yaml:"roles"`
}

type routeFile struct {
	Routes []Route `yaml:"routes"`
}

type Config struct {
	ListenAddr  string
	LogLevel    string
	JWTSecret   []byte
	JWTIssuer   string
	JWTAudience string
	RateLimit   float64
	RateBurst   int
	Routes      []Route
}

func (c *Config) needsAuth() bool {
	for _, r := range c.Routes {
		if r.Auth || len(r.Roles) > 0 {
			return true
		}
	}
	return false
}

func Load() *Config {
	config.LoadDotenv(".env", "gateway/.env")
	shared := config.Load()

	cfg := &Config{
		ListenAddr:  config.EnvDefault("GATEWAY_ADDR", ":8080"),
		LogLevel:    shared.LogLevel,
		JWTSecret:   shared.JWTSecret,
		JWTIssuer:   shared.JWTIssuer,
		JWTAudience: shared.JWTAudience,
		RateLimit:   envFloat("GATEWAY_RATE_LIMIT", 20),
		RateBurst:   config.EnvIntDefault("GATEWAY_RATE_BURST", 40),
	}

	var err error
	if path := os.Getenv("GATEWAY_ROUTES_FILE"); path != "" {
		cfg.Routes, err = LoadRoutes(path)
	} else {
		cfg.Routes, err = DefaultRoutes(shared.AuthHTTPURL, shared.CatalogHTTPURL, shared.OrderHTTPURL)
	}
	if err != nil {
		log.Fatalf("gateway routes: %v", err)
	}

	if cfg.needsAuth() {
		config.MustSecret(cfg.JWTSecret, "JWT_SECRET")
	}
	return cfg
}

// DefaultRoutes mirrors the service layout. Upstream services enforce their
// own rules; the gateway only pre-checks the order API.
func DefaultRoutes(authURL, catalogURL, orderURL string) ([]Route, error) {
	routes := []Route{
		{Name: "auth", Prefix: "/api/auth", Upstream: authURL},
		{Name: "catalog", Prefix: "/api/product", Upstream: catalogURL},
		{Name: "order", Prefix: "/api/order", Upstream: orderURL, Auth: true},
	}
	return routes, validate(routes)
}

func LoadRoutes(path string) ([]Route, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read routes: %w", err)
	}
	return ParseRoutes(b)
}

func ParseRoutes(b []byte) ([]Route, error) {
	var f routeFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse routes: %w", err)
	}
	for i := range f.Routes {
		f.Routes[i].Prefix = "/" + strings.Trim(f.Routes[i].Prefix, "/")
		for j, m := range f.Routes[i].Methods {
			f.Routes[i].Methods[j] = strings.ToUpper(m)
		}
		if len(f.Routes[i].Roles) > 0 {
			f.Routes[i].Auth = true
		}
	}
	if err := validate(f.Routes); err != nil {
		return nil, err
	}
	return f.Routes, nil
}

func validate(routes []Route) error {
	if len(routes) == 0 {
		return fmt.Errorf("no routes")
	}
	seen := make(map[string]bool, len(routes))
	for _, r := range routes {
		if r.Prefix == "" || r.Prefix == "/" {
			return fmt.Errorf("route %q: prefix is required", r.Name)
		}
		if seen[r.Prefix] {
			return fmt.Errorf("route %q: duplicate prefix %s", r.Name, r.Prefix)
		}
		seen[r.Prefix] = true

		u, err := url.Parse(r.Upstream)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("route %q: invalid upstream %q", r.Name, r.Upstream)
		}
	}
	return nil
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
