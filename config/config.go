// ABOUTME: Application configuration from YAML, .env, and environment overrides
// ABOUTME: Resolves storage backend, data paths, logging, and web dashboard settings
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// AppName names the XDG config and data directories.
const AppName = "offertrack"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendCharm  = "charm"
)

const envPrefix = "OFFERTRACK_"

var ErrUnknownBackend = errors.New("unknown storage backend")

type Config struct {
	Backend   string    `yaml:"backend"`
	DataDir   string    `yaml:"data_dir"`
	DBPath    string    `yaml:"db_path,omitempty"`
	ImportDir string    `yaml:"import_dir,omitempty"`
	Timezone  string    `yaml:"timezone,omitempty"`
	Log       LogConfig `yaml:"log"`
	Web       WebConfig `yaml:"web"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend: BackendSQLite,
		DataDir: filepath.Join(xdg.DataHome, AppName),
		Log:     LogConfig{Level: "info", Format: "text"},
		Web:     WebConfig{Addr: "127.0.0.1:8642"},
	}
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// Load reads .env from the working directory, then the YAML config file,
// then OFFERTRACK_* environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := Path()
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		path = p
	}
	return LoadFrom(path)
}

// LoadFrom reads the YAML file at path. A missing file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"BACKEND":    &c.Backend,
		"DATA_DIR":   &c.DataDir,
		"DB_PATH":    &c.DBPath,
		"IMPORT_DIR": &c.ImportDir,
		"TIMEZONE":   &c.Timezone,
		"LOG_LEVEL":  &c.Log.Level,
		"LOG_FORMAT": &c.Log.Format,
		"WEB_ADDR":   &c.Web.Addr,
	}
	for key, field := range overrides {
		if v, ok := os.LookupEnv(envPrefix + key); ok && v != "" {
			*field = v
		}
	}
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendSQLite, BackendBadger, BackendCharm:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// SQLitePath is the database file for the sqlite backend.
func (c *Config) SQLitePath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return filepath.Join(c.DataDir, "offertrack.db")
}

// BadgerDir is the directory for the local badger backend.
func (c *Config) BadgerDir() string {
	return filepath.Join(c.DataDir, "badger")
}

// Location resolves the configured timezone, defaulting to local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds a logger writing to stderr at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if level, err := logrus.ParseLevel(c.Log.Level); err == nil {
		log.SetLevel(level)
	}
	if strings.EqualFold(c.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// Save writes the config as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
