// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Config holds all server configuration.
type Config struct {
	Addr   string
	WebDir string

	Store       string
	DatabaseURL string
	SQLitePath  string

	LogLevel  string
	LogFormat string

	SessionTTL             time.Duration
	SummaryCacheTTL        time.Duration
	SessionCleanupSchedule string

	// Requests per second and burst for each client on the rate-limited
	// endpoints.
	InsightsRate  float64
	InsightsBurst int

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// LoadDotEnv seeds the environment from the given files, or ./.env when none
// are named. Variables already set are not overridden. A missing file is not
// an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:                   getEnv("ADDR", ":8080"),
		WebDir:                 getEnv("WEB_DIR", "web"),
		Store:                  strings.ToLower(getEnv("STORE", "")),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		SQLitePath:             getEnv("SQLITE_PATH", "data/noteflow.db"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogFormat:              getEnv("LOG_FORMAT", "text"),
		SessionCleanupSchedule: getEnv("SESSION_CLEANUP_SCHEDULE", "@hourly"),
		OIDCIssuer:             getEnv("OIDC_ISSUER", ""),
		OIDCClientID:           getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:       getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:        getEnv("OIDC_REDIRECT_URL", ""),
	}

	var err error
	if cfg.SessionTTL, err = getDurationEnv("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SummaryCacheTTL, err = getDurationEnv("SUMMARY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.InsightsRate, err = getFloatEnv("INSIGHTS_RATE", 2); err != nil {
		return nil, err
	}
	if cfg.InsightsBurst, err = getIntEnv("INSIGHTS_BURST", 10); err != nil {
		return nil, err
	}

	// Without an explicit backend, a database URL selects postgres.
	if cfg.Store == "" {
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		} else {
			cfg.Store = StoreSQLite
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OIDCEnabled reports whether SSO is fully configured.
func (c *Config) OIDCEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != "" && c.OIDCRedirectURL != ""
}

func (c *Config) validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for store %q", c.Store)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("config: SQLITE_PATH is required for store %q", c.Store)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE %q", c.Store)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: SESSION_TTL must be positive")
	}
	if c.InsightsRate <= 0 || c.InsightsBurst <= 0 {
		return fmt.Errorf("config: INSIGHTS_RATE and INSIGHTS_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) (int, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getFloatEnv(key string, defaultValue float64) (float64, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
