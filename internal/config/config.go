// Package config loads service configuration from YAML with environment
// overrides for deployment settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedUser is a user record created at startup. Passwords are hashed before
// they reach the store; they only ever appear in plaintext inside the
// config file.
type SeedUser struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Auth configures token issuance.
type Auth struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
}

// Database selects the persistence backend. An empty DSN selects the
// volatile in-memory store.
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Audit configures the request audit trail.
type Audit struct {
	Path       string `yaml:"path"`
	MaxEntries int    `yaml:"max_entries"`
}

// Config is the root configuration document.
type Config struct {
	Listen    string     `yaml:"listen"`
	LogLevel  string     `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	Auth      Auth       `yaml:"auth"`
	Database  Database   `yaml:"database"`
	Audit     Audit      `yaml:"audit"`
	Users     []SeedUser `yaml:"users"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Auth: Auth{
			TokenTTLMinutes: 30,
		},
		Audit: Audit{
			MaxEntries: 200,
		},
	}
}

// Load reads the config file at path, applies environment overrides, and
// validates required fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret is required (or set HABITLOOP_AUTH_SECRET)")
	}
	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 30
	}
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	return cfg, nil
}

// LoadOrDefault loads the file if it exists and otherwise starts from
// defaults, still applying environment overrides.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	cfg := Default()
	applyEnv(cfg)
	if cfg.Auth.Secret == "" {
		return nil, fmt.Errorf("auth.secret is required (or set HABITLOOP_AUTH_SECRET)")
	}
	return cfg, nil
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HABITLOOP_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("HABITLOOP_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HABITLOOP_AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("HABITLOOP_TOKEN_TTL_MINUTES"); v != "" {
		if ttl, err := strconv.Atoi(v); err == nil && ttl > 0 {
			cfg.Auth.TokenTTLMinutes = ttl
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("HABITLOOP_AUDIT_PATH"); v != "" {
		cfg.Audit.Path = v
	}
}
