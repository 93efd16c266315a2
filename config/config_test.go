// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, YAML parsing, env overrides, and validation
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(cfg.DataDir, "offertrack.db"), cfg.SQLitePath())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: Badger
data_dir: /tmp/offers
timezone: America/Chicago
log:
  level: debug
  format: json
web:
  addr: ":9000"
`), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Backend)
	assert.Equal(t, "/tmp/offers/badger", cfg.BadgerDir())
	assert.Equal(t, ":9000", cfg.Web.Addr)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Chicago", loc.String())

	log := cfg.NewLogger()
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OFFERTRACK_BACKEND", "charm")
	t.Setenv("OFFERTRACK_DB_PATH", "/tmp/custom.db")
	t.Setenv("OFFERTRACK_LOG_LEVEL", "warn")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendCharm, cfg.Backend)
	assert.Equal(t, "/tmp/custom.db", cfg.SQLitePath())
	assert.Equal(t, logrus.WarnLevel, cfg.NewLogger().GetLevel())
}

func TestValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "backend: postgres\n"},
		{"bad log level", "log:\n  level: loud\n"},
		{"bad timezone", "timezone: Mars/Olympus\n"},
		{"malformed yaml", "backend: [sqlite\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0600))
			_, err := LoadFrom(path)
			assert.Error(t, err, "case %d", i)
		})
	}

	cfg := Default()
	cfg.Backend = "nope"
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownBackend)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Backend = BackendBadger
	cfg.ImportDir = "/tmp/drop"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
