package internal

import (
	"testing"
	"time"
)

// setRequiredEnv sets the minimum environment for NewConfig to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/wayfind_test")
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}

	if cfg.Preset != PresetDevelopment {
		t.Errorf("Preset = %q, want %q", cfg.Preset, PresetDevelopment)
	}
	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.BindHost != "0.0.0.0" {
		t.Errorf("BindHost = %q, want 0.0.0.0", cfg.BindHost)
	}
	if cfg.StorageProvider != "local" {
		t.Errorf("StorageProvider = %q, want local", cfg.StorageProvider)
	}
	if cfg.PrefsStore != "memory" {
		t.Errorf("PrefsStore = %q, want memory", cfg.PrefsStore)
	}
	if cfg.PreviewCacheMaxAge != 7*24*time.Hour {
		t.Errorf("PreviewCacheMaxAge = %v, want 168h", cfg.PreviewCacheMaxAge)
	}
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRESET", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("BIND_HOST", "127.0.0.1")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig() error: %v", err)
	}

	if cfg.Preset != PresetProduction {
		t.Errorf("Preset = %q, want %q", cfg.Preset, PresetProduction)
	}
	if cfg.Addr() != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want 127.0.0.1:8080", cfg.Addr())
	}
}

func TestNewConfig_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := NewConfig(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestNewConfig_RejectsUnknownPreset(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PRESET", "staging")

	if _, err := NewConfig(); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestNewConfig_RejectsUnknownStorageProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_PROVIDER", "ftp")

	if _, err := NewConfig(); err == nil {
		t.Error("expected error for unknown storage provider")
	}
}

func TestNewConfig_S3RequiresCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("STORAGE_PROVIDER", "s3")

	if _, err := NewConfig(); err == nil {
		t.Error("expected error when s3 storage has no credentials")
	}
}

func TestNewConfig_RejectsUnknownPrefsStore(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PREFS_STORE", "dynamo")

	if _, err := NewConfig(); err == nil {
		t.Error("expected error for unknown preference store")
	}
}

func TestIsSecure(t *testing.T) {
	cfg := &Config{Preset: PresetDevelopment}
	if cfg.IsSecure() {
		t.Error("development should not be secure")
	}

	cfg.Preset = PresetProduction
	if !cfg.IsSecure() {
		t.Error("production should be secure")
	}
}
