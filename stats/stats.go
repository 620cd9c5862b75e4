// Package stats aggregates graph-wide counts into the statistics summary
// served by the query API.
//
// Counts are read from the store once per graph generation and memoized:
// repeated requests against an unchanged graph never touch the store again,
// and a successful load invalidates the cache implicitly through the
// generation counter.
package stats

import (
	"context"
	"log/slog"
	"sync"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/store"
	"github.com/c360/astrograph/vocabulary"
)

// Aggregator computes and caches the graph statistics summary.
type Aggregator struct {
	store  store.Store
	logger *slog.Logger

	mu         sync.Mutex
	generation uint64
	cached     *graph.Stats
}

// Deps holds the dependencies for constructing an Aggregator.
type Deps struct {
	Store  store.Store
	Logger *slog.Logger
}

// NewAggregator creates a statistics aggregator over the given store.
func NewAggregator(deps Deps) (*Aggregator, error) {
	if deps.Store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Aggregator", "NewAggregator", "store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: deps.Store, logger: logger}, nil
}

// Stats returns the current statistics summary. The first call per graph
// generation reads the per-label and per-type counts from the store and
// derives the totals by summing them; later calls return the memoized copy.
func (a *Aggregator) Stats(ctx context.Context) (graph.Stats, error) {
	if !a.store.Loaded() {
		return graph.Stats{}, errors.WrapInvalid(errors.ErrNotLoaded, "Aggregator", "Stats", "no graph loaded")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	gen := a.store.Generation()
	if a.cached != nil && a.generation == gen {
		return cloneStats(*a.cached), nil
	}

	labels, err := a.store.LabelCounts(ctx)
	if err != nil {
		return graph.Stats{}, errors.Wrap(err, "Aggregator", "Stats", "read label counts")
	}
	types, err := a.store.TypeCounts(ctx)
	if err != nil {
		return graph.Stats{}, errors.Wrap(err, "Aggregator", "Stats", "read edge type counts")
	}

	// The store may have been reloaded between the two reads. Each read is
	// internally consistent, but only a stable generation guarantees the pair
	// belongs to the same snapshot.
	if a.store.Generation() != gen {
		return graph.Stats{}, errors.WrapTransient(errors.ErrStoreUnavailable, "Aggregator", "Stats",
			"graph reloaded during aggregation")
	}

	result := graph.Stats{
		LabelCounts: labels,
		TypeCounts:  types,
	}
	// Totals are derived from the breakdowns, so the summary can never report
	// a total that disagrees with the sum of its parts.
	for _, n := range labels {
		result.TotalNodes += n
	}
	for _, n := range types {
		result.TotalEdges += n
	}

	a.generation = gen
	a.cached = &result
	a.logger.Debug("statistics aggregated",
		"generation", gen,
		"total_nodes", result.TotalNodes,
		"total_edges", result.TotalEdges)

	return cloneStats(result), nil
}

// cloneStats copies the summary so callers cannot mutate the memoized maps.
func cloneStats(s graph.Stats) graph.Stats {
	out := graph.Stats{
		TotalNodes:  s.TotalNodes,
		TotalEdges:  s.TotalEdges,
		LabelCounts: make(map[vocabulary.Label]int, len(s.LabelCounts)),
		TypeCounts:  make(map[vocabulary.EdgeType]int, len(s.TypeCounts)),
	}
	for k, v := range s.LabelCounts {
		out.LabelCounts[k] = v
	}
	for k, v := range s.TypeCounts {
		out.TypeCounts[k] = v
	}
	return out
}
