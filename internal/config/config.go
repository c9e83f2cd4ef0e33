package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, populated from environment
// variables. A .env file in the working directory is loaded first if present.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DatabasePath is the SQLite database file, or ":memory:".
	DatabasePath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// AllowedOrigins is the CORS allowlist. Empty means same-origin only.
	AllowedOrigins []string
	// MetricsUser and MetricsPass guard the /metrics endpoint. Both empty
	// disables the endpoint.
	MetricsUser string
	MetricsPass string
	// NotifyInterval is how often the notifier sweeps for overdue quests.
	NotifyInterval time.Duration
	// DueSoonWindow is how far ahead the notifier looks for quests coming due.
	DueSoonWindow time.Duration
	// LoginRatePerMinute bounds login/register attempts per client IP.
	LoginRatePerMinute int
}

// Load reads configuration from the environment. Every variable has a
// sensible default, so a bare invocation works out of the box.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Addr:               getEnv("QUESTBOARD_ADDR", ":8080"),
		DatabasePath:       getEnv("QUESTBOARD_DB_PATH", "questboard.db"),
		LogLevel:           getEnv("QUESTBOARD_LOG_LEVEL", "info"),
		MetricsUser:        os.Getenv("QUESTBOARD_METRICS_USER"),
		MetricsPass:        os.Getenv("QUESTBOARD_METRICS_PASS"),
		NotifyInterval:     15 * time.Minute,
		DueSoonWindow:      24 * time.Hour,
		LoginRatePerMinute: 10,
	}

	if v := os.Getenv("QUESTBOARD_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitAndTrim(v)
	}

	if v := os.Getenv("QUESTBOARD_NOTIFY_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse QUESTBOARD_NOTIFY_INTERVAL: %w", err)
		}
		cfg.NotifyInterval = d
	}

	if v := os.Getenv("QUESTBOARD_DUE_SOON_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parse QUESTBOARD_DUE_SOON_WINDOW: %w", err)
		}
		cfg.DueSoonWindow = d
	}

	if v := os.Getenv("QUESTBOARD_LOGIN_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("parse QUESTBOARD_LOGIN_RATE: %q is not a positive integer", v)
		}
		cfg.LoginRatePerMinute = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
