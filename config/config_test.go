package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/astrograph/errors"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Service.HTTPAddr)
	assert.Equal(t, []string{"*"}, cfg.Service.CORSOrigins)
	assert.Equal(t, 30*time.Second, cfg.Service.RequestTimeout)
	assert.Equal(t, 10, cfg.Search.DefaultLimit)
	assert.Equal(t, 1, cfg.Subgraph.DefaultRadius)
	assert.Equal(t, 20, cfg.Context.EvidenceBudget)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"service": {"http_addr": ":9191", "cors_origins": ["https://dashboard.local"]},
		"search": {"default_limit": 5, "max_limit": 25},
		"context": {"match_weight": 0.7, "specificity_weight": 0.3},
		"logging": {"level": "debug", "format": "text"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9191", cfg.Service.HTTPAddr)
	assert.Equal(t, []string{"https://dashboard.local"}, cfg.Service.CORSOrigins)
	assert.Equal(t, 5, cfg.Search.DefaultLimit)
	assert.Equal(t, 0.7, cfg.Context.MatchWeight)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset fields still get defaults.
	assert.Equal(t, 3, cfg.Subgraph.MaxRadius)
}

func TestLoadDurationStrings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{
		"service": {"request_timeout": "45s", "shutdown_timeout": "1m30s"},
		"archive": {"timeout": "2s"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Service.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.Service.ShutdownTimeout)
	assert.Equal(t, 2*time.Second, cfg.Archive.Timeout)
}

func TestLoadBadDurationString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	content := `{"service": {"request_timeout": "45 parsecs"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParsingFailed))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMissingConfig))
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"service": `), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrParsingFailed))
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ASTROGRAPH_HTTP_ADDR", ":7070")
	t.Setenv("ASTROGRAPH_NATS_URL", "nats://archive:4222")
	t.Setenv("ASTROGRAPH_ARCHIVE_ENABLED", "true")
	t.Setenv("ASTROGRAPH_CORS_ORIGINS", "https://a.local, https://b.local")
	t.Setenv("ASTROGRAPH_LOG_LEVEL", "WARN")
	t.Setenv("ASTROGRAPH_EVIDENCE_BUDGET", "7")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Service.HTTPAddr)
	assert.Equal(t, "nats://archive:4222", cfg.Archive.URL)
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, []string{"https://a.local", "https://b.local"}, cfg.Service.CORSOrigins)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 7, cfg.Context.EvidenceBudget)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }},
		{name: "default limit above max", mutate: func(c *Config) { c.Search.DefaultLimit = 100; c.Search.MaxLimit = 10 }},
		{name: "default radius above max", mutate: func(c *Config) { c.Subgraph.DefaultRadius = 5; c.Subgraph.MaxRadius = 2 }},
		{name: "tiny request cap", mutate: func(c *Config) { c.Service.MaxRequestBytes = 16 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.SetDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}
