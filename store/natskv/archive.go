// Package natskv persists the most recently loaded export artifact in a NATS
// JetStream key-value bucket so the engine can restore its graph after a
// restart without waiting for a fresh bulk load.
//
// The archive stores the raw artifact bytes. Restores replay through the same
// decode-and-load path as a fresh load, so a corrupt archive entry is
// rejected exactly like a corrupt upload.
package natskv

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360/astrograph/errors"
)

// artifactKey is the single key holding the archived export artifact.
const artifactKey = "export-artifact"

// Config configures the snapshot archive connection.
type Config struct {
	// Enabled toggles the archive. When false the engine runs memory-only.
	Enabled bool `json:"enabled"`
	// URL is the NATS server address.
	URL string `json:"url"`
	// Bucket is the KV bucket name holding the archived artifact.
	Bucket string `json:"bucket"`
	// Timeout bounds individual KV operations. Duration string in the config
	// file, e.g. "5s".
	Timeout time.Duration `json:"timeout"`
	// MaxArtifactBytes caps the archived artifact size. JetStream KV values
	// are subject to the server's max message size.
	MaxArtifactBytes int `json:"max_artifact_bytes"`
}

// UnmarshalJSON accepts the timeout as a duration string ("5s") or a raw
// nanosecond integer.
func (c *Config) UnmarshalJSON(data []byte) error {
	type plain Config
	aux := struct {
		*plain
		Timeout json.RawMessage `json:"timeout"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	switch {
	case len(aux.Timeout) == 0, string(aux.Timeout) == "null":
		c.Timeout = 0
	default:
		var s string
		if err := json.Unmarshal(aux.Timeout, &s); err == nil {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("timeout: %w", err)
			}
			c.Timeout = d
			return nil
		}
		var ns int64
		if err := json.Unmarshal(aux.Timeout, &ns); err != nil {
			return fmt.Errorf("timeout: invalid duration %s", aux.Timeout)
		}
		c.Timeout = time.Duration(ns)
	}
	return nil
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Bucket == "" {
		c.Bucket = "astrograph-snapshots"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.MaxArtifactBytes == 0 {
		c.MaxArtifactBytes = 8 * 1024 * 1024
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Archive", "Validate", "nats url is required")
	}
	if c.Bucket == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Archive", "Validate", "bucket name is required")
	}
	if c.Timeout <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Archive", "Validate",
			fmt.Sprintf("timeout must be positive, got %s", c.Timeout))
	}
	return nil
}

// Archive is a JetStream KV-backed store for the last loaded export artifact.
type Archive struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
	cfg    Config
	logger *slog.Logger
}

// Connect dials NATS and binds the archive bucket, creating it if absent.
func Connect(ctx context.Context, cfg Config, logger *slog.Logger) (*Archive, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("astrograph-archive"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Connect",
			fmt.Sprintf("dial nats: %v", err))
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Connect",
			fmt.Sprintf("jetstream context: %v", err))
	}

	opCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	// Bind the existing bucket first; create on first run.
	bucket, err := js.KeyValue(opCtx, cfg.Bucket)
	if err != nil {
		bucket, err = js.CreateKeyValue(opCtx, jetstream.KeyValueConfig{
			Bucket:      cfg.Bucket,
			Description: "AstroGraph export artifact archive",
			History:     1,
			MaxBytes:    int64(cfg.MaxArtifactBytes) * 2,
		})
		if err != nil {
			conn.Close()
			return nil, errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Connect",
				fmt.Sprintf("bind bucket %s: %v", cfg.Bucket, err))
		}
		logger.Info("created snapshot archive bucket", "bucket", cfg.Bucket)
	}

	return &Archive{conn: conn, bucket: bucket, cfg: cfg, logger: logger}, nil
}

// Save archives the artifact bytes, replacing any previous entry.
func (a *Archive) Save(ctx context.Context, artifact []byte) error {
	if len(artifact) > a.cfg.MaxArtifactBytes {
		return errors.WrapInvalid(errors.ErrInvalidData, "Archive", "Save",
			fmt.Sprintf("artifact size %d exceeds limit %d", len(artifact), a.cfg.MaxArtifactBytes))
	}

	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	rev, err := a.bucket.Put(opCtx, artifactKey, artifact)
	if err != nil {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Save",
			fmt.Sprintf("put artifact: %v", err))
	}

	a.logger.Info("export artifact archived", "bucket", a.cfg.Bucket, "revision", rev, "bytes", len(artifact))
	return nil
}

// Load returns the archived artifact bytes, or (nil, false, nil) when no
// artifact has been archived yet.
func (a *Archive) Load(ctx context.Context) ([]byte, bool, error) {
	opCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	entry, err := a.bucket.Get(opCtx, artifactKey)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Load",
			fmt.Sprintf("get artifact: %v", err))
	}
	return entry.Value(), true, nil
}

// Ping verifies the NATS connection is alive.
func (a *Archive) Ping(ctx context.Context) error {
	if a.conn == nil || !a.conn.IsConnected() {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "Archive", "Ping", "nats disconnected")
	}
	return nil
}

// Close drains the NATS connection.
func (a *Archive) Close() error {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
	return nil
}
