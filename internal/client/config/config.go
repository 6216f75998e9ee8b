package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds runtime settings for the matchmate CLI.
//
// Units: RequestTimeout is a time.Duration (e.g., 10*time.Second).
type Config struct {
	ServerURL      string        `env:"SERVER_URL, overwrite" validate:"required,url"`
	Store          string        `env:"STORE, overwrite" validate:"oneof=sqlite redis memory"`
	DatabaseDSN    string        `env:"DATABASE_DSN, overwrite" validate:"required_if=Store sqlite"`
	RedisAddr      string        `env:"REDIS_ADDR, overwrite" validate:"required_if=Store redis"`
	RedisPrefix    string        `env:"REDIS_PREFIX, overwrite" validate:"required"`
	LogLevel       string        `env:"LOG_LEVEL, overwrite" validate:"oneof=debug info warn error"`
	LogFormat      string        `env:"LOG_FORMAT, overwrite" validate:"oneof=text json zerolog"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT, overwrite" validate:"gt=0"`
	PageSize       int           `env:"PAGE_SIZE, overwrite" validate:"gte=1,lte=100"`
	MetricsAddr    string        `env:"METRICS_ADDR, overwrite" validate:"omitempty,hostname_port"`
	SessionSecret  string        `env:"SESSION_SECRET, overwrite"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080/api"
	c.Store = StoreSQLite
	c.DatabaseDSN = "matchmate.db"
	c.RedisPrefix = "matchmate"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.RequestTimeout = 10 * time.Second
	c.PageSize = 20
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, a .env file, the environment and command-line flags, in that order.
// Later sources take precedence over earlier ones. It panics when a source
// cannot be read or the result is invalid.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	return cfg
}
