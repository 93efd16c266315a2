// ABOUTME: Connection settings for the Charm cloud-synced KV backend
// ABOUTME: Stored as JSON beside the offertrack data directory
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database and the local data directory.
	AppName = "offertrack"

	ConfigFileName = "charm-config.json"
)

// ConfigDir is overridable so tests do not touch the real data directory.
var ConfigDir = func() string { return filepath.Join(xdg.DataHome, AppName) }

type Config struct {
	Host string `json:"host,omitempty"`

	// AutoSync pushes to the server after every write.
	AutoSync bool `json:"auto_sync"`

	// SyncOnOpen pulls remote changes when the store is opened.
	SyncOnOpen bool `json:"sync_on_open"`

	StaleThreshold time.Duration `json:"stale_threshold,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		SyncOnOpen:     true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

// LoadConfig returns defaults when no config file exists. Missing fields
// in an existing file are filled from defaults.
func LoadConfig() (*Config, error) {
	data, err := os.ReadFile(filepath.Join(ConfigDir(), ConfigFileName))
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read charm config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse charm config: %w", err)
	}
	if cfg.Host == "" {
		cfg.Host = DefaultCharmHost
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = kv.DefaultStaleThreshold
	}
	return cfg, nil
}

func (c *Config) Save() error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ConfigFileName), data, 0600)
}

func (c *Config) SetHost(host string) error {
	c.Host = host
	return c.Save()
}

func (c *Config) SetAutoSync(enabled bool) error {
	c.AutoSync = enabled
	return c.Save()
}
