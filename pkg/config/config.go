package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/lborres/bantay"
	"github.com/lborres/bantay/services"
)

// Supported values of DATABASE_DRIVER
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port           string        `env:"PORT" envDefault:"8080"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	DatabaseDriver string        `env:"DATABASE_DRIVER" envDefault:"postgres"`
	JWTSecret      string        `env:"JWT_SECRET"`
	AccessExpiry   time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	RefreshExpiry  time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"720h"`

	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"GOOGLE_REDIRECT_URI"`
	ProviderTimeout    time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"10s"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
	BasePath       string   `env:"AUTH_BASE_PATH" envDefault:"/api/auth"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.AllowedOrigins = trimCSV(cfg.AllowedOrigins)
	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.AccessExpiry <= 0 || cfg.RefreshExpiry <= 0 {
		return nil, errors.New("token expiries must be positive")
	}

	return &cfg, nil
}

// Validate reports problems that make some actions fail at request time.
// The server still starts; each action performs its own checks.
func (c *Config) Validate() error {
	var errs []error
	if err := services.NewCodec(c.JWTSecret, c.AccessExpiry, nil).ValidateSecret(); err != nil {
		errs = append(errs, err)
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURI == "" {
		errs = append(errs, bantay.ErrProviderNotConfigured)
	}
	return errors.Join(errs...)
}

// Session returns the token lifetimes.
func (c *Config) Session() bantay.SessionConfig {
	return bantay.SessionConfig{AccessTTL: c.AccessExpiry, RefreshTTL: c.RefreshExpiry}
}

func trimCSV(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
