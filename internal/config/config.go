// Package config loads and persists application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Buffer    BufferConfig
	Remote    RemoteConfig
	Auth      AuthConfig
	Daemon    DaemonConfig
	Dashboard DashboardConfig
	Log       LogConfig
}

// BufferConfig holds local buffer settings.
type BufferConfig struct {
	Path string
	// SeedFile optionally points at a TOML file of category definitions
	// used instead of the built-in defaults.
	SeedFile string `mapstructure:"seed_file"`
}

// RemoteConfig holds remote store settings.
type RemoteConfig struct {
	URL string
	// AuthTokenEnv names the env var consulted for the token when
	// AuthToken itself is empty.
	AuthTokenEnv string `mapstructure:"auth_token_env"`
	AuthToken    string `mapstructure:"auth_token"`
}

// AuthConfig holds the persisted identity.
type AuthConfig struct {
	UserID string `mapstructure:"user_id"`
}

// DaemonConfig holds background sync settings.
type DaemonConfig struct {
	ProbeInterval  time.Duration `mapstructure:"probe_interval"`
	SettleDelay    time.Duration `mapstructure:"settle_delay"`
	StatusInterval time.Duration `mapstructure:"status_interval"`
	MarkerPath     string        `mapstructure:"marker_path"`
}

// DashboardConfig holds WebSocket dashboard settings.
type DashboardConfig struct {
	Port int
}

// LogConfig holds daemon log file settings.
type LogConfig struct {
	File       string
	MaxSizeMB  int `mapstructure:"max_size_mb"`
	MaxBackups int `mapstructure:"max_backups"`
}

// dataDir is where mutable state (buffer, marker, logs) lives by default.
func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "pocket")
}

// Token returns the remote auth token, preferring the configured value and
// falling back to the named env var.
func (c *Config) Token() string {
	if c.Remote.AuthToken != "" {
		return c.Remote.AuthToken
	}
	if c.Remote.AuthTokenEnv != "" {
		return os.Getenv(c.Remote.AuthTokenEnv)
	}
	return ""
}

// Path returns the config file location that Save writes: the POCKET_CONFIG
// override if set, the default location otherwise. The daemon watches this
// path to pick up logins without a restart.
func Path() string {
	if p := os.Getenv("POCKET_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "pocket", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix POCKET_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("buffer.path", filepath.Join(dataDir(), "pending.db"))
	v.SetDefault("buffer.seed_file", "")
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.auth_token_env", "POCKET_AUTH_TOKEN")
	v.SetDefault("remote.auth_token", "")
	v.SetDefault("auth.user_id", "")
	v.SetDefault("daemon.probe_interval", "15s")
	v.SetDefault("daemon.settle_delay", "2s")
	v.SetDefault("daemon.status_interval", "30s")
	v.SetDefault("daemon.marker_path", filepath.Join(dataDir(), "force-offline"))
	v.SetDefault("dashboard.port", 8321)
	v.SetDefault("log.file", filepath.Join(dataDir(), "daemon.log"))
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("POCKET_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "pocket"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("POCKET")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used by `pocket login` to persist the identity and token.
// The token is stored in plain text; encourage users to prefer env vars.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("buffer.path", cfg.Buffer.Path)
	v.Set("buffer.seed_file", cfg.Buffer.SeedFile)
	v.Set("remote.url", cfg.Remote.URL)
	v.Set("remote.auth_token_env", cfg.Remote.AuthTokenEnv)
	v.Set("remote.auth_token", cfg.Remote.AuthToken)
	v.Set("auth.user_id", cfg.Auth.UserID)
	v.Set("daemon.probe_interval", cfg.Daemon.ProbeInterval.String())
	v.Set("daemon.settle_delay", cfg.Daemon.SettleDelay.String())
	v.Set("daemon.status_interval", cfg.Daemon.StatusInterval.String())
	v.Set("daemon.marker_path", cfg.Daemon.MarkerPath)
	v.Set("dashboard.port", cfg.Dashboard.Port)
	v.Set("log.file", cfg.Log.File)
	v.Set("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.Set("log.max_backups", cfg.Log.MaxBackups)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
