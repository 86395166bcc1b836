// Package config provides configuration management for pulseboard.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
)

const (
	// ConfigFileName is the default config file name
	ConfigFileName = "config.yaml"
	// PulseboardDir is the pulseboard configuration directory
	PulseboardDir = ".pulseboard"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address (default ":8080")
	Addr string `yaml:"addr"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	// Dialect selects the database backend: "sqlite" or "postgres"
	Dialect string `yaml:"dialect"`

	// DSN is the connection string. For sqlite this is a file path
	// (default .pulseboard/pulseboard.db); for postgres a full DSN.
	DSN string `yaml:"dsn"`
}

// ImportConfig holds import endpoint settings.
type ImportConfig struct {
	// Secret is the bearer token required on POST /api/import.
	// When empty the endpoint fails closed with AUTH_NOT_CONFIGURED.
	Secret string `yaml:"secret"`

	// PseudonymizeNames hashes task names before storage when true.
	PseudonymizeNames bool `yaml:"pseudonymize_names"`
}

// AuthConfig holds delegated OAuth sign-in settings.
type AuthConfig struct {
	// GitHubClientID and GitHubClientSecret configure the OAuth app.
	// Sign-in is disabled when either is empty.
	GitHubClientID     string `yaml:"github_client_id"`
	GitHubClientSecret string `yaml:"github_client_secret"`

	// CookieName is the session cookie name (default "pulseboard_session")
	CookieName string `yaml:"cookie_name"`
}

// Config represents the pulseboard configuration.
type Config struct {
	// Version is the config file version
	Version int `yaml:"version"`

	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Import   ImportConfig   `yaml:"import"`
	Auth     AuthConfig     `yaml:"auth"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			DSN:     filepath.Join(PulseboardDir, "pulseboard.db"),
		},
		Import: ImportConfig{
			Secret:            "",
			PseudonymizeNames: false,
		},
		Auth: AuthConfig{
			CookieName: "pulseboard_session",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	switch c.Database.Dialect {
	case "sqlite", "postgres":
	default:
		return pberrors.ErrConfigInvalid(fmt.Sprintf("database.dialect must be sqlite or postgres, got %q", c.Database.Dialect))
	}
	if c.Database.DSN == "" {
		return pberrors.ErrConfigInvalid("database.dsn must not be empty")
	}
	if c.Server.Addr == "" {
		return pberrors.ErrConfigInvalid("server.addr must not be empty")
	}
	return nil
}

// Save writes the configuration to the given path, creating the
// parent directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
