// Package config loads and validates the engine configuration from a JSON
// file with environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/grounding"
	"github.com/c360/astrograph/store/natskv"
)

// ServiceConfig configures the HTTP query API.
type ServiceConfig struct {
	// HTTPAddr is the listen address, e.g. ":8080".
	HTTPAddr string `json:"http_addr"`
	// CORSOrigins lists allowed origins; "*" allows any.
	CORSOrigins []string `json:"cors_origins"`
	// MaxRequestBytes caps request bodies (load artifacts, questions).
	MaxRequestBytes int64 `json:"max_request_bytes"`
	// RequestTimeout bounds a single query request. Duration string in the
	// config file, e.g. "30s".
	RequestTimeout time.Duration `json:"request_timeout"`
	// ShutdownTimeout bounds graceful shutdown. Duration string in the config
	// file, e.g. "10s".
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// UnmarshalJSON accepts duration fields as duration strings ("30s") or raw
// nanosecond integers.
func (c *ServiceConfig) UnmarshalJSON(data []byte) error {
	type plain ServiceConfig
	aux := struct {
		*plain
		RequestTimeout  json.RawMessage `json:"request_timeout"`
		ShutdownTimeout json.RawMessage `json:"shutdown_timeout"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if c.RequestTimeout, err = parseDurationJSON(aux.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout: %w", err)
	}
	if c.ShutdownTimeout, err = parseDurationJSON(aux.ShutdownTimeout); err != nil {
		return fmt.Errorf("shutdown_timeout: %w", err)
	}
	return nil
}

// parseDurationJSON converts a raw JSON duration field: a duration string
// like "30s", a raw nanosecond integer, or absent/null for zero.
func parseDurationJSON(raw json.RawMessage) (time.Duration, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return time.ParseDuration(s)
	}
	var ns int64
	if err := json.Unmarshal(raw, &ns); err == nil {
		return time.Duration(ns), nil
	}
	return 0, fmt.Errorf("invalid duration %s", raw)
}

// SearchConfig configures suggestion queries.
type SearchConfig struct {
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`
}

// SubgraphConfig configures subgraph retrieval bounds.
type SubgraphConfig struct {
	DefaultRadius   int `json:"default_radius"`
	MaxRadius       int `json:"max_radius"`
	DefaultMaxNodes int `json:"default_max_nodes"`
	MaxMaxNodes     int `json:"max_max_nodes"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `json:"level"`
	// Format is "json" or "text".
	Format string `json:"format"`
}

// Config is the complete engine configuration.
type Config struct {
	Service  ServiceConfig    `json:"service"`
	Search   SearchConfig     `json:"search"`
	Subgraph SubgraphConfig   `json:"subgraph"`
	Context  grounding.Config `json:"context"`
	Archive  natskv.Config    `json:"archive"`
	Logging  LoggingConfig    `json:"logging"`
}

// SetDefaults applies default values to every section.
func (c *Config) SetDefaults() {
	if c.Service.HTTPAddr == "" {
		c.Service.HTTPAddr = ":8080"
	}
	if len(c.Service.CORSOrigins) == 0 {
		c.Service.CORSOrigins = []string{"*"}
	}
	if c.Service.MaxRequestBytes == 0 {
		c.Service.MaxRequestBytes = 16 * 1024 * 1024
	}
	if c.Service.RequestTimeout == 0 {
		c.Service.RequestTimeout = 30 * time.Second
	}
	if c.Service.ShutdownTimeout == 0 {
		c.Service.ShutdownTimeout = 10 * time.Second
	}

	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxLimit == 0 {
		c.Search.MaxLimit = 50
	}

	if c.Subgraph.DefaultRadius == 0 {
		c.Subgraph.DefaultRadius = 1
	}
	if c.Subgraph.MaxRadius == 0 {
		c.Subgraph.MaxRadius = 3
	}
	if c.Subgraph.DefaultMaxNodes == 0 {
		c.Subgraph.DefaultMaxNodes = 50
	}
	if c.Subgraph.MaxMaxNodes == 0 {
		c.Subgraph.MaxMaxNodes = 500
	}

	c.Context.SetDefaults()
	c.Archive.SetDefaults()

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Service.HTTPAddr == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate", "service.http_addr is required")
	}
	if c.Service.MaxRequestBytes < 1024 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("service.max_request_bytes too small: %d", c.Service.MaxRequestBytes))
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"search limits must satisfy 1 <= default_limit <= max_limit")
	}
	if c.Subgraph.MaxRadius < c.Subgraph.DefaultRadius || c.Subgraph.DefaultRadius < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"subgraph radius bounds must satisfy 0 <= default_radius <= max_radius")
	}
	if c.Subgraph.MaxMaxNodes < c.Subgraph.DefaultMaxNodes || c.Subgraph.DefaultMaxNodes < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			"subgraph node bounds must satisfy 1 <= default_max_nodes <= max_max_nodes")
	}
	if err := c.Context.Validate(); err != nil {
		return err
	}
	if err := c.Archive.Validate(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown logging.level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("unknown logging.format %q", c.Logging.Format))
	}
	return nil
}

// Load reads a configuration file, applies environment overrides, defaults,
// and validation. An empty path yields the default configuration with
// environment overrides applied.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Load",
				fmt.Sprintf("read %s: %v", path, err))
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(errors.ErrParsingFailed, "Config", "Load",
				fmt.Sprintf("parse %s: %v", path, err))
		}
	}

	applyEnvOverrides(cfg)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies ASTROGRAPH_* environment variables on top of the
// file values. Invalid values are ignored in favor of the file/default.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ASTROGRAPH_HTTP_ADDR"); v != "" {
		cfg.Service.HTTPAddr = v
	}
	if v := os.Getenv("ASTROGRAPH_CORS_ORIGINS"); v != "" {
		cfg.Service.CORSOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("ASTROGRAPH_NATS_URL"); v != "" {
		cfg.Archive.URL = v
	}
	if v := os.Getenv("ASTROGRAPH_NATS_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ASTROGRAPH_ARCHIVE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if v := os.Getenv("ASTROGRAPH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("ASTROGRAPH_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("ASTROGRAPH_EVIDENCE_BUDGET"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Context.EvidenceBudget = n
		}
	}
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
