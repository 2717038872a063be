package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  read_timeout: 5s
storage:
  backend: memory
datasets:
  entity_uri: s3://emissions/mines.json
  year_uri: gs://emissions/yearly.json
  ingest_on_startup: true
calculator:
  session_ttl: 10m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.Equal(t, "s3://emissions/mines.json", cfg.Datasets.EntityURI)
	assert.Equal(t, "gs://emissions/yearly.json", cfg.Datasets.YearURI)
	assert.True(t, cfg.Datasets.IngestOnStartup)
	assert.Equal(t, 10*time.Minute, cfg.Calculator.SessionTTL)

	// untouched sections keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, time.Minute, cfg.Calculator.JanitorInterval)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, "emissions", DefaultConfig().Database.Database)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not, a, map")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DB_HOST":                "db.internal",
		"DB_PORT":                "6543",
		"LOG_LEVEL":              "debug",
		"STORAGE_BACKEND":        "memory",
		"S3_USE_PATH_STYLE":      "true",
		"CALCULATOR_SESSION_TTL": "90s",
		"ENTITY_DATASET_URI":     "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnv(lookup))

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, StorageMemory, cfg.Storage.Backend)
	assert.True(t, cfg.Sources.S3.UsePathStyle)
	assert.Equal(t, 90*time.Second, cfg.Calculator.SessionTTL)
	assert.Equal(t, "data/emission_data.json", cfg.Datasets.EntityURI, "empty override is ignored")
}

func TestApplyEnv_BadValues(t *testing.T) {
	env := map[string]string{
		"DB_PORT":           "five",
		"S3_USE_PATH_STYLE": "maybe",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	err := DefaultConfig().applyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PORT")
	assert.Contains(t, err.Error(), "S3_USE_PATH_STYLE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:   "memory storage needs no database",
			mutate: func(c *Config) { c.Storage.Backend = StorageMemory; c.Database.Host = "" },
		},
		{
			name:    "bad server port",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "redis" },
			wantErr: "storage.backend",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host",
		},
		{
			name:    "missing entity dataset",
			mutate:  func(c *Config) { c.Datasets.EntityURI = "" },
			wantErr: "datasets.entity_uri",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "chatty" },
			wantErr: "logging.level",
		},
		{
			name:    "non-positive session ttl",
			mutate:  func(c *Config) { c.Calculator.SessionTTL = 0 },
			wantErr: "calculator.session_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
