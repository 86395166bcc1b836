package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
)

// Load loads configuration from the standard locations.
// Load order (later sources override earlier):
//  1. Built-in defaults
//  2. User config (~/.pulseboard/config.yaml) - optional
//  3. Project config (.pulseboard/config.yaml) - optional
//  4. Environment variables (PULSEBOARD_*)
func Load() (*Config, error) {
	cfg := Default()

	// 2. User config (~/.pulseboard/config.yaml)
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, PulseboardDir, ConfigFileName)
		if _, err := os.Stat(userPath); err == nil {
			if err := mergeFromFile(cfg, userPath); err != nil {
				slog.Warn("failed to load user config", "path", userPath, "error", err)
			}
		}
	}

	// 3. Project config (.pulseboard/config.yaml)
	projectPath := filepath.Join(PulseboardDir, ConfigFileName)
	if _, err := os.Stat(projectPath); err == nil {
		if err := mergeFromFile(cfg, projectPath); err != nil {
			return nil, err // Project config errors are fatal
		}
	}

	// 4. Environment variables
	applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from an explicit file path, applying
// defaults for unset fields and environment overrides on top.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, pberrors.ErrConfigMissing(path)
	}

	cfg := Default()
	if err := mergeFromFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFromFile merges configuration from a file into cfg.
// Fields absent from the file keep their current values.
func mergeFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnvVars applies PULSEBOARD_* environment variable overrides.
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("PULSEBOARD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("PULSEBOARD_DATABASE_DIALECT"); v != "" {
		cfg.Database.Dialect = v
	}
	if v := os.Getenv("PULSEBOARD_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PULSEBOARD_IMPORT_SECRET"); v != "" {
		cfg.Import.Secret = v
	}
	if v := os.Getenv("PULSEBOARD_PSEUDONYMIZE_NAMES"); v == "true" || v == "1" {
		cfg.Import.PseudonymizeNames = true
	}
	if v := os.Getenv("PULSEBOARD_GITHUB_CLIENT_ID"); v != "" {
		cfg.Auth.GitHubClientID = v
	}
	if v := os.Getenv("PULSEBOARD_GITHUB_CLIENT_SECRET"); v != "" {
		cfg.Auth.GitHubClientSecret = v
	}
}
