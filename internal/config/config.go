// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full service configuration.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort int    `env:"HTTP_PORT" envDefault:"8080"`

	Database Database
	Redis    Redis

	// Consistency rules
	BackdateLimitDays int     `env:"BACKDATE_LIMIT_DAYS" envDefault:"30"`
	PriceTolerance    float64 `env:"PRICE_TOLERANCE" envDefault:"0.5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// WorkerInterval is the pause between maintenance sweeps
	WorkerInterval time.Duration `env:"WORKER_INTERVAL" envDefault:"1h"`
}

// Database configures the Postgres store. An empty URL selects the
// in-memory store.
type Database struct {
	URL              string        `env:"DATABASE_URL"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"25"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"30s"`
}

// Redis configures the distributed locker. An empty Addr keeps locks in process.
type Redis struct {
	Addr     string        `env:"REDIS_ADDR"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

// Load reads the optional dotenv files, then parses the environment.
// Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges the tags cannot express.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.BackdateLimitDays <= 0 {
		return fmt.Errorf("BACKDATE_LIMIT_DAYS must be positive, got %d", c.BackdateLimitDays)
	}
	if c.PriceTolerance < 0 || c.PriceTolerance > 1 {
		return fmt.Errorf("PRICE_TOLERANCE must be within [0, 1], got %v", c.PriceTolerance)
	}
	if c.WorkerInterval <= 0 {
		return fmt.Errorf("WORKER_INTERVAL must be positive, got %s", c.WorkerInterval)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

// UseMemoryStore reports whether no database is configured.
func (c *Config) UseMemoryStore() bool { return c.Database.URL == "" }

// UseRedisLocks reports whether locks are shared through Redis.
func (c *Config) UseRedisLocks() bool { return c.Redis.Addr != "" }

// HTTPAddr is the listen address.
func (c *Config) HTTPAddr() string { return fmt.Sprintf(":%d", c.HTTPPort) }
