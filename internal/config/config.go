package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by database.Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	ListenHost string
	ListenPort string
	Workers    int
	// HTTPPort serves /health, /metrics and the /ws gateway. "off" disables it.
	HTTPPort  string
	GinMode   string
	LogLevel  string
	LogFormat string

	DBDriver    string
	DBPath      string
	DatabaseURL string
	MaxDBConns  int
	AutoMigrate bool

	// RedisURL moves sessions into Redis when set.
	RedisURL      string
	SessionTTL    time.Duration
	BcryptCost    int
	SweepInterval time.Duration
	// NATSURL enables domain event publishing when set.
	NATSURL string

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
	WSRateLimit    int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenHost:     getEnv("LISTEN_HOST", "0.0.0.0"),
		ListenPort:     getEnv("LISTEN_PORT", "5555"),
		Workers:        getEnvInt("WORKERS", 4),
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "pretty"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBPath:         getEnv("DB_PATH", "./data/quiz.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MaxDBConns:     getEnvInt("MAX_DB_CONNS", 8),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionTTL:     time.Duration(getEnvInt("SESSION_TTL_SECONDS", 3600)) * time.Second,
		BcryptCost:     getEnvInt("BCRYPT_COST", 10),
		SweepInterval:  time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 10)) * time.Second,
		NATSURL:        os.Getenv("NATS_URL"),
		AllowedOrigins: parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		WSRateLimit:    getEnvInt("WS_RATE_LIMIT", 30),
	}
}

// HTTPEnabled reports whether the ops and gateway HTTP server should run.
func (c *Config) HTTPEnabled() bool {
	return c.HTTPPort != "" && !strings.EqualFold(c.HTTPPort, "off")
}

// ListenAddr is the TCP address of the protocol listener.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.ListenHost, c.ListenPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
