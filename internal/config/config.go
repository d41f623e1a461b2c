// Package config loads all runtime configuration from environment variables.
// No config files and no third-party config framework are used.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for tasksync.
type Config struct {
	DB      DBConfig
	Log     LogConfig
	LMS     LMSConfig
	OTel    OTelConfig
	Metrics MetricsConfig
}

// DBConfig holds database connection configuration.
type DBConfig struct {
	Driver   string // "sqlite" (default) or "postgres"
	DSN      string // required when Driver == "postgres"
	Password string //nolint:gosec // intentional: holds the store key loaded from env
	File     string // SQLite database file path (default: "tasksync.db")
	MaxConns int    // Postgres only
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string
	Format string
}

// LMSConfig holds itslearning API settings.
type LMSConfig struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration // 0 means no timeout
}

// OTelConfig holds OpenTelemetry exporter settings.
type OTelConfig struct {
	OTLPEndpoint string
}

// MetricsConfig holds the Prometheus Pushgateway target of a run.
type MetricsConfig struct {
	PushURL string
}

// Load reads configuration from environment variables, applies defaults,
// and returns an error if any required field is absent.
func Load() (*Config, error) {
	cfg := &Config{}

	// DB
	cfg.DB.Driver = envStr("DB_DRIVER", "sqlite")
	switch cfg.DB.Driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported (sqlite or postgres)", cfg.DB.Driver)
	}
	cfg.DB.File = envStr("DB_FILE", "tasksync.db")
	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.Driver == "postgres" && cfg.DB.DSN == "" {
		return nil, errors.New("DB_DSN is required when DB_DRIVER=postgres")
	}
	cfg.DB.Password = os.Getenv("DB_PASSWORD")
	cfg.DB.MaxConns = envInt("DB_MAX_CONNS", 5)

	// Log
	cfg.Log.Level = envStr("LOG_LEVEL", "info")
	cfg.Log.Format = envStr("LOG_FORMAT", "json")

	// LMS
	cfg.LMS.BaseURL = envStr("LMS_BASE_URL", "https://www.itslearning.com")
	if u, err := url.Parse(cfg.LMS.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("LMS_BASE_URL %q must be an absolute URL", cfg.LMS.BaseURL)
	}
	cfg.LMS.ClientID = envStr("LMS_CLIENT_ID", "10ae9d30-1853-48ff-81cb-47b58a325685")
	var err error
	cfg.LMS.Timeout, err = envDuration("LMS_HTTP_TIMEOUT", 0)
	if err != nil {
		return nil, fmt.Errorf("LMS_HTTP_TIMEOUT: %w", err)
	}
	if cfg.LMS.Timeout < 0 {
		return nil, errors.New("LMS_HTTP_TIMEOUT must not be negative")
	}

	// OTel
	cfg.OTel.OTLPEndpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

	// Metrics
	cfg.Metrics.PushURL = os.Getenv("METRICS_PUSH_URL")

	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
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

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", v, err)
	}
	return d, nil
}
