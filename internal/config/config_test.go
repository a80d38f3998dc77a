package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POCKET_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Buffer.Path == "" {
		t.Error("buffer path default missing")
	}
	if cfg.Daemon.ProbeInterval != 15*time.Second {
		t.Errorf("probe interval = %v, want 15s", cfg.Daemon.ProbeInterval)
	}
	if cfg.Dashboard.Port != 8321 {
		t.Errorf("dashboard port = %d, want 8321", cfg.Dashboard.Port)
	}
	if cfg.Remote.AuthTokenEnv != "POCKET_AUTH_TOKEN" {
		t.Errorf("auth token env = %q", cfg.Remote.AuthTokenEnv)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[remote]
url = "libsql://pocket.example.turso.io"

[auth]
user_id = "user-42"

[daemon]
probe_interval = "5s"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("POCKET_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.URL != "libsql://pocket.example.turso.io" {
		t.Errorf("remote url = %q", cfg.Remote.URL)
	}
	if cfg.Auth.UserID != "user-42" {
		t.Errorf("user id = %q", cfg.Auth.UserID)
	}
	if cfg.Daemon.ProbeInterval != 5*time.Second {
		t.Errorf("probe interval = %v, want 5s", cfg.Daemon.ProbeInterval)
	}
	// Unset keys keep their defaults.
	if cfg.Dashboard.Port != 8321 {
		t.Errorf("dashboard port = %d, want 8321", cfg.Dashboard.Port)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("POCKET_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("POCKET_REMOTE_URL", "libsql://env.example.turso.io")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Remote.URL != "libsql://env.example.turso.io" {
		t.Errorf("remote url = %q, want env override", cfg.Remote.URL)
	}
}

func TestTokenFallback(t *testing.T) {
	t.Setenv("POCKET_AUTH_TOKEN", "tok-env")

	cfg := Config{}
	cfg.Remote.AuthTokenEnv = "POCKET_AUTH_TOKEN"
	if got := cfg.Token(); got != "tok-env" {
		t.Errorf("Token() = %q, want tok-env", got)
	}

	cfg.Remote.AuthToken = "tok-file"
	if got := cfg.Token(); got != "tok-file" {
		t.Errorf("Token() = %q, want configured value to win", got)
	}
}

func TestPath(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom.toml")
	t.Setenv("POCKET_CONFIG", override)
	if got := Path(); got != override {
		t.Errorf("Path() = %q, want POCKET_CONFIG override", got)
	}

	t.Setenv("POCKET_CONFIG", "")
	want := filepath.Join(os.Getenv("HOME"), ".config", "pocket", "config.toml")
	if got := Path(); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	t.Setenv("POCKET_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cfg.Auth.UserID = "user-7"
	cfg.Remote.URL = "libsql://saved.example.turso.io"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got.Auth.UserID != "user-7" {
		t.Errorf("user id = %q, want user-7", got.Auth.UserID)
	}
	if got.Remote.URL != "libsql://saved.example.turso.io" {
		t.Errorf("remote url = %q", got.Remote.URL)
	}
}
