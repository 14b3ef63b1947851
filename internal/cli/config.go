package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/vizdeck/pkg/errors"
)

// Config holds CLI settings loaded from the TOML config file. Flags
// override config values; config values override defaults.
type Config struct {
	// Width is the default canvas width in pixels.
	Width float64 `toml:"width"`

	// DebounceMs is the watch-mode settle window in milliseconds.
	DebounceMs int `toml:"debounce_ms"`

	// Concurrency caps concurrent chart renders per document.
	Concurrency int `toml:"concurrency"`

	// Redis configures the shared cache backend. Empty Addr selects
	// the local file cache.
	Redis RedisConfig `toml:"redis"`

	// Mongo configures the serve-mode document library. Empty URI
	// selects the in-memory store.
	Mongo MongoConfig `toml:"mongo"`

	// Serve configures the HTTP server.
	Serve ServeConfig `toml:"serve"`
}

// RedisConfig mirrors the cache backend settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig mirrors the document library settings.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Width:       960,
		DebounceMs:  250,
		Concurrency: 4,
		Serve:       ServeConfig{Addr: ":8080"},
	}
}

// DebounceDelay converts the configured debounce window to a duration.
func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// LoadConfig reads the config file at path, or the default location
// when path is empty. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "read config %q", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %q", path)
	}
	return cfg, nil
}

// defaultConfigPath returns ~/.config/vizdeck/config.toml following the
// XDG convention, or "" when no home directory is available.
func defaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}
