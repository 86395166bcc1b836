package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	pberrors "github.com/randalmurphal/pulseboard/internal/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Database.Dialect != "sqlite" {
		t.Errorf("Database.Dialect = %q, want sqlite", cfg.Database.Dialect)
	}
	if cfg.Import.Secret != "" {
		t.Errorf("Import.Secret = %q, want empty", cfg.Import.Secret)
	}
	if cfg.Import.PseudonymizeNames {
		t.Error("Import.PseudonymizeNames should default to false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"postgres dialect", func(c *Config) { c.Database.Dialect = "postgres" }, false},
		{"unknown dialect", func(c *Config) { c.Database.Dialect = "mongo" }, true},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, true},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoadFrom(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, PulseboardDir, ConfigFileName)

	cfg := Default()
	cfg.Server.Addr = ":9191"
	cfg.Import.Secret = "s3cret"
	cfg.Import.PseudonymizeNames = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.Server.Addr != ":9191" {
		t.Errorf("Server.Addr = %q, want :9191", loaded.Server.Addr)
	}
	if loaded.Import.Secret != "s3cret" {
		t.Errorf("Import.Secret = %q, want s3cret", loaded.Import.Secret)
	}
	if !loaded.Import.PseudonymizeNames {
		t.Error("Import.PseudonymizeNames should be true")
	}
	// Fields absent from the file keep defaults
	if loaded.Database.Dialect != "sqlite" {
		t.Errorf("Database.Dialect = %q, want sqlite", loaded.Database.Dialect)
	}
}

func TestEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ConfigFileName)

	cfg := Default()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PULSEBOARD_IMPORT_SECRET", "from-env")
	t.Setenv("PULSEBOARD_DATABASE_DSN", "/tmp/env.db")
	t.Setenv("PULSEBOARD_PSEUDONYMIZE_NAMES", "true")

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if loaded.Import.Secret != "from-env" {
		t.Errorf("Import.Secret = %q, want from-env", loaded.Import.Secret)
	}
	if loaded.Database.DSN != "/tmp/env.db" {
		t.Errorf("Database.DSN = %q, want /tmp/env.db", loaded.Database.DSN)
	}
	if !loaded.Import.PseudonymizeNames {
		t.Error("PseudonymizeNames should be true from env")
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("LoadFrom should fail on a missing file")
	}

	var pbErr *pberrors.Error
	if !errors.As(err, &pbErr) {
		t.Fatalf("expected structured error, got %v", err)
	}
	if pbErr.Code != pberrors.CodeConfigMissing {
		t.Errorf("expected code %s, got %s", pberrors.CodeConfigMissing, pbErr.Code)
	}

	if _, err := os.Stat("nope.yaml"); err == nil {
		t.Error("LoadFrom must not create the file")
	}
}
