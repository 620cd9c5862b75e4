// Package engine composes the query and retrieval components over a shared
// graph store and owns the load cycle.
//
// A load cycle decodes the export artifact, installs it in the store, builds
// a fresh search index off to the side, and swaps the index reference only
// after the store load succeeds. Readers concurrent with a load observe
// either the pre-load or the post-load state in full.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360/astrograph/config"
	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/grounding"
	"github.com/c360/astrograph/health"
	"github.com/c360/astrograph/metric"
	"github.com/c360/astrograph/search"
	"github.com/c360/astrograph/stats"
	"github.com/c360/astrograph/store"
	"github.com/c360/astrograph/subgraph"
)

// Archive persists the last loaded export artifact across restarts.
// Implemented by the NATS KV snapshot archive; nil disables archiving.
type Archive interface {
	Save(ctx context.Context, artifact []byte) error
	Load(ctx context.Context) ([]byte, bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// Deps holds the dependencies for constructing an Engine.
type Deps struct {
	Store   store.Store
	Config  *config.Config
	Archive Archive
	Metrics *metric.Metrics
	Logger  *slog.Logger
}

// Engine is the composition root of the query core.
type Engine struct {
	store   store.Store
	cfg     *config.Config
	archive Archive
	metrics *metric.Metrics
	logger  *slog.Logger

	index atomic.Pointer[search.Index]

	aggregator *stats.Aggregator
	subgraphs  *subgraph.Retriever
	context    *grounding.Retriever

	loadMu sync.Mutex
}

// New wires the query components over the given store.
func New(deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Engine", "New", "store is required")
	}
	if deps.Config == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Engine", "New", "config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		store:   deps.Store,
		cfg:     deps.Config,
		archive: deps.Archive,
		metrics: deps.Metrics,
		logger:  logger,
	}
	e.index.Store(search.Build(nil))

	indexProvider := func() *search.Index { return e.index.Load() }

	aggregator, err := stats.NewAggregator(stats.Deps{Store: deps.Store, Logger: logger})
	if err != nil {
		return nil, err
	}
	e.aggregator = aggregator

	subgraphs, err := subgraph.NewRetriever(subgraph.Deps{
		Store:  deps.Store,
		Index:  indexProvider,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	e.subgraphs = subgraphs

	contextRetriever, err := grounding.NewRetriever(grounding.Deps{
		Store:  deps.Store,
		Index:  indexProvider,
		Config: deps.Config.Context,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	e.context = contextRetriever

	return e, nil
}

// LoadArtifact decodes an export artifact, replaces the graph, rebuilds the
// search index, and archives the artifact for restart recovery. The archive
// write is best-effort: a failure there is logged but does not fail the load.
func (e *Engine) LoadArtifact(ctx context.Context, r io.Reader) error {
	artifact, err := io.ReadAll(r)
	if err != nil {
		e.recordLoad("error", 0)
		return errors.WrapInvalid(errors.ErrParsingFailed, "Engine", "LoadArtifact",
			fmt.Sprintf("read artifact: %v", err))
	}
	if err := e.loadBytes(ctx, artifact); err != nil {
		return err
	}

	if e.archive != nil {
		if err := e.archive.Save(ctx, artifact); err != nil {
			e.logger.Warn("failed to archive export artifact", "error", err)
			e.recordError("archive", errors.Kind(err))
		}
	}
	return nil
}

// Restore replays the archived artifact through the normal load path. It is
// a no-op when archiving is disabled or nothing has been archived yet.
func (e *Engine) Restore(ctx context.Context) error {
	if e.archive == nil {
		return nil
	}
	artifact, found, err := e.archive.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "Engine", "Restore", "read archived artifact")
	}
	if !found {
		e.logger.Info("no archived artifact found, starting empty")
		return nil
	}
	if err := e.loadBytes(ctx, artifact); err != nil {
		return errors.Wrap(err, "Engine", "Restore", "replay archived artifact")
	}
	e.logger.Info("graph restored from archive", "generation", e.store.Generation())
	return nil
}

// loadBytes runs one serialized load cycle: decode, store load, index swap.
func (e *Engine) loadBytes(ctx context.Context, artifact []byte) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	start := time.Now()

	nodes, edges, err := graph.DecodeExport(bytes.NewReader(artifact))
	if err != nil {
		e.recordLoad("rejected", time.Since(start))
		return err
	}
	if err := e.store.Load(ctx, nodes, edges); err != nil {
		e.recordLoad("rejected", time.Since(start))
		return err
	}

	// Build the new index aside and swap after the store load commits, so a
	// reader never sees a new index over an old graph for long enough to
	// matter: suggestions always resolve against store state at query time.
	storedNodes, err := e.store.Nodes(ctx)
	if err != nil {
		e.recordLoad("error", time.Since(start))
		return errors.Wrap(err, "Engine", "LoadArtifact", "read back nodes for indexing")
	}
	e.index.Store(search.Build(storedNodes))

	elapsed := time.Since(start)
	e.recordLoad("ok", elapsed)
	if e.metrics != nil {
		e.metrics.RecordSnapshot(e.store.Generation(), len(nodes), len(edges))
	}
	e.logger.Info("load cycle complete",
		"generation", e.store.Generation(),
		"nodes", len(nodes),
		"edges", len(edges),
		"duration", elapsed)
	return nil
}

// Stats returns the aggregated graph statistics.
func (e *Engine) Stats(ctx context.Context) (graph.Stats, error) {
	return instrument(e, "stats", func() (graph.Stats, error) {
		return e.aggregator.Stats(ctx)
	})
}

// Suggest resolves a partial or misspelled name to ranked candidates.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) ([]search.Match, error) {
	return instrument(e, "search", func() ([]search.Match, error) {
		if !e.store.Loaded() {
			return nil, errors.WrapInvalid(errors.ErrNotLoaded, "Engine", "Suggest", "no graph loaded")
		}
		matches := e.index.Load().Suggest(query, limit)
		if matches == nil {
			matches = []search.Match{}
		}
		return matches, nil
	})
}

// Subgraph returns a bounded induced subgraph around the resolved seed.
func (e *Engine) Subgraph(ctx context.Context, seedQuery string, radius, maxNodes int) (graph.Subgraph, error) {
	return instrument(e, "subgraph", func() (graph.Subgraph, error) {
		return e.subgraphs.Around(ctx, seedQuery, radius, maxNodes)
	})
}

// Context grounds a free-text question in the graph.
func (e *Engine) Context(ctx context.Context, question string) (grounding.Evidence, error) {
	return instrument(e, "context", func() (grounding.Evidence, error) {
		return e.context.Retrieve(ctx, question)
	})
}

// Loaded reports whether a graph snapshot has been loaded at least once.
func (e *Engine) Loaded() bool {
	return e.store.Loaded()
}

// Health reports the engine's aggregate health: store reachability, snapshot
// presence, and archive connectivity when enabled.
func (e *Engine) Health(ctx context.Context) health.Status {
	var subs []health.Status

	if err := e.store.Ping(ctx); err != nil {
		subs = append(subs, health.Unhealthy("store", err))
		if e.metrics != nil {
			e.metrics.RecordStoreUp(false)
		}
	} else {
		subs = append(subs, health.Healthy("store", ""))
		if e.metrics != nil {
			e.metrics.RecordStoreUp(true)
		}
	}

	if e.store.Loaded() {
		subs = append(subs, health.Healthy("snapshot",
			fmt.Sprintf("generation %d loaded", e.store.Generation())))
	} else {
		subs = append(subs, health.Degraded("snapshot", "no graph loaded yet"))
	}

	if e.archive != nil {
		if err := e.archive.Ping(ctx); err != nil {
			subs = append(subs, health.Degraded("archive", "archive unreachable"))
		} else {
			subs = append(subs, health.Healthy("archive", ""))
		}
	}

	return health.Aggregate("engine", subs...)
}

// Ready reports readiness: the store is reachable and a snapshot is loaded.
func (e *Engine) Ready(ctx context.Context) bool {
	return e.store.Ping(ctx) == nil && e.store.Loaded()
}

// Close releases the store and archive connections.
func (e *Engine) Close() error {
	var firstErr error
	if e.archive != nil {
		if err := e.archive.Close(); err != nil {
			firstErr = err
		}
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// instrument wraps a query with duration and outcome metrics.
func instrument[T any](e *Engine, operation string, fn func() (T, error)) (T, error) {
	start := time.Now()
	result, err := fn()
	if e.metrics != nil {
		status := "ok"
		if err != nil {
			status = errors.Kind(err)
		}
		e.metrics.RecordQuery(operation, status, time.Since(start))
	}
	return result, err
}

func (e *Engine) recordLoad(status string, duration time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordLoad(status, duration)
	}
}

func (e *Engine) recordError(component, kind string) {
	if e.metrics != nil {
		e.metrics.RecordError(component, kind)
	}
}
