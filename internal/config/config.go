// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Connect and retry tuning. The generous connect timeout and the
	// backoff budget exist for serverless Postgres, which suspends after
	// inactivity and takes tens of seconds to resume.
	DBConnectTimeout    time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"30s"`
	DBMaxRetries        int           `env:"DB_MAX_RETRIES" envDefault:"5"`
	DBRetryInitialDelay time.Duration `env:"DB_RETRY_INITIAL_DELAY" envDefault:"2s"`
	DBRetryMaxDelay     time.Duration `env:"DB_RETRY_MAX_DELAY" envDefault:"30s"`
	DBRetryMultiplier   float64       `env:"DB_RETRY_MULTIPLIER" envDefault:"2.0"`

	// Migrations
	MigrateOnStart bool   `env:"MIGRATE_ON_START" envDefault:"true"`
	MigrationsDir  string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// Cache (Redis)
	RedisURL         string        `env:"REDIS_URL,required"`
	CacheScheduleTTL time.Duration `env:"CACHE_SCHEDULE_TTL" envDefault:"10m"`
	CacheListTTL     time.Duration `env:"CACHE_LIST_TTL" envDefault:"2m"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
