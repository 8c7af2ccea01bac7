package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	LogLevel    string

	ServerPort int

	DatabaseURL string

	JWTSecret   []byte
	JWTIssuer   string
	JWTAudience string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration

	RefreshStore string
	RedisURL     string

	// upstream base URLs, used by the gateway's default route table
	AuthHTTPURL    string
	CatalogHTTPURL string
	OrderHTTPURL   string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
}

// Load reads the shared service configuration from the environment. Values
// are read once at startup and never mutated afterwards.
func Load() Config {
	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", ""),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		ServerPort: EnvIntDefault("SERVER_PORT", 8080),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		JWTIssuer:   EnvDefault("JWT_ISSUER", "microshop-auth"),
		JWTAudience: EnvDefault("JWT_AUDIENCE", "microshop"),
		AccessTTL:   EnvDurationDefault("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:  EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),

		RefreshStore: EnvDefault("REFRESH_STORE", "sql"),
		RedisURL:     os.Getenv("REDIS_URL"),

		AuthHTTPURL:    EnvDefault("AUTH_URL", "http://localhost:8081"),
		CatalogHTTPURL: EnvDefault("CATALOG_URL", "http://localhost:8082"),
		OrderHTTPURL:   EnvDefault("ORDER_URL", "http://localhost:8083"),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
	}
}

// LoadDotenv loads the first .env file that exists. A missing file is not an
// error: the process falls back to the real environment.
func LoadDotenv(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
	log.Printf("notice: no .env file found in %v, using system environment", paths)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
