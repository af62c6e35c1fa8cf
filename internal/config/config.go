// Package config provides configuration loading for kuratord.
//
// Configuration is read from an optional YAML file, then overridden by
// environment variables with the KURATOR_ prefix.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/praktiklabs/kurator/internal/extraction"
	"github.com/praktiklabs/kurator/internal/logging"
)

// Config holds the complete kuratord configuration.
type Config struct {
	Server     ServerConfig      `koanf:"server"`
	Logging    logging.Config    `koanf:"logging"`
	Store      StoreConfig       `koanf:"store"`
	Extraction extraction.Config `koanf:"extraction"`
	RateLimit  RateLimitConfig   `koanf:"rate_limit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	// Path is the SQLite database file. Empty selects the in-memory
	// store, which loses the catalog on restart.
	Path string `koanf:"path"`
}

// RateLimitConfig holds the per-session extraction budget.
type RateLimitConfig struct {
	MaxExtractions int           `koanf:"max_extractions"`
	Window         time.Duration `koanf:"window"`
}

// Default returns the configuration defaults applied before file and
// environment loading.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8780,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path: "kurator.db",
		},
		Extraction: extraction.Config{
			Provider: extraction.ProviderAnthropic,
		},
		RateLimit: RateLimitConfig{
			MaxExtractions: 10,
			Window:         time.Hour,
		},
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if c.RateLimit.MaxExtractions <= 0 {
		return errors.New("rate limit max extractions must be positive")
	}
	if c.RateLimit.Window <= 0 {
		return errors.New("rate limit window must be positive")
	}
	return nil
}
