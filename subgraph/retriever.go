// Package subgraph produces bounded, renderable neighborhoods around a seed
// entity for visualization.
package subgraph

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/search"
	"github.com/c360/astrograph/store"
)

// Deps holds the dependencies for constructing a Retriever.
type Deps struct {
	Store store.Store
	// Index returns the current search index. Indexes are rebuilt and
	// swapped on load, so the retriever resolves one per request.
	Index  func() *search.Index
	Logger *slog.Logger
}

// Retriever resolves a seed query and expands a bounded subgraph around it.
type Retriever struct {
	store  store.Store
	index  func() *search.Index
	logger *slog.Logger
}

// NewRetriever creates a subgraph retriever.
func NewRetriever(deps Deps) (*Retriever, error) {
	if deps.Store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "SubgraphRetriever", "NewRetriever", "store is required")
	}
	if deps.Index == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "SubgraphRetriever", "NewRetriever", "index provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: deps.Store, index: deps.Index, logger: logger}, nil
}

// Around resolves seedQuery through the search index and expands breadth-first
// up to radius hops, stopping early once maxNodes distinct nodes have been
// collected. The returned edge set is induced: exactly the edges whose both
// endpoints made it into the node set.
//
// Node order is seed first, then each ring ordered by edge type name and node
// ID; edges are ordered by (type, from, to). Repeated calls with identical
// arguments on an unchanged graph return identical results.
func (r *Retriever) Around(ctx context.Context, seedQuery string, radius, maxNodes int) (graph.Subgraph, error) {
	if !r.store.Loaded() {
		return graph.Subgraph{}, errors.WrapInvalid(errors.ErrNotLoaded, "SubgraphRetriever", "Around", "no graph loaded")
	}
	if radius < 0 {
		return graph.Subgraph{}, errors.WrapInvalid(errors.ErrInvalidData, "SubgraphRetriever", "Around",
			fmt.Sprintf("radius must be non-negative, got %d", radius))
	}
	if maxNodes < 1 {
		return graph.Subgraph{}, errors.WrapInvalid(errors.ErrInvalidData, "SubgraphRetriever", "Around",
			fmt.Sprintf("maxNodes must be positive, got %d", maxNodes))
	}

	seed, err := r.resolveSeed(seedQuery)
	if err != nil {
		return graph.Subgraph{}, err
	}

	result := graph.Subgraph{
		SeedID: seed.ID,
		Nodes:  []graph.Node{seed},
		Edges:  []graph.Edge{},
	}
	included := map[string]bool{seed.ID: true}
	frontier := []string{seed.ID}

	hop := 1
	for ; hop <= radius && len(frontier) > 0 && len(included) < maxNodes; hop++ {
		ring, err := r.expandRing(ctx, frontier, included)
		if err != nil {
			return graph.Subgraph{}, err
		}

		frontier = frontier[:0]
		for _, n := range ring {
			if len(included) >= maxNodes {
				result.Truncated = true
				break
			}
			included[n.Node.ID] = true
			result.Nodes = append(result.Nodes, n.Node)
			frontier = append(frontier, n.Node.ID)
		}
	}

	// The cap can land exactly on a ring boundary. The result is still
	// truncated if another ring within the radius would have discovered more.
	if !result.Truncated && len(included) >= maxNodes && hop <= radius && len(frontier) > 0 {
		ring, err := r.expandRing(ctx, frontier, included)
		if err != nil {
			return graph.Subgraph{}, err
		}
		result.Truncated = len(ring) > 0
	}

	if radius > 0 {
		edges, err := r.inducedEdges(ctx, result.Nodes, included)
		if err != nil {
			return graph.Subgraph{}, err
		}
		result.Edges = edges
	}

	r.logger.Debug("subgraph retrieved",
		"seed", seed.ID,
		"radius", radius,
		"nodes", len(result.Nodes),
		"edges", len(result.Edges),
		"truncated", result.Truncated)
	return result, nil
}

// resolveSeed maps a seed query to its best-matching node.
func (r *Retriever) resolveSeed(seedQuery string) (graph.Node, error) {
	matches := r.index().Suggest(seedQuery, 1)
	if len(matches) == 0 {
		return graph.Node{}, errors.WrapInvalid(errors.ErrNoMatch, "SubgraphRetriever", "Around",
			fmt.Sprintf("seed query %q", seedQuery))
	}
	return matches[0].Node, nil
}

// expandRing collects the next ring of undiscovered neighbors around the
// frontier, ordered by edge type name then node ID. One entry per node: the
// ring drives node collection, and the induced-edge pass recovers every edge
// between included pairs afterwards.
func (r *Retriever) expandRing(ctx context.Context, frontier []string, included map[string]bool) ([]graph.Neighbor, error) {
	var ring []graph.Neighbor
	claimed := map[string]bool{}
	for _, id := range frontier {
		neighbors, err := r.store.Neighbors(ctx, id, 1, nil)
		if err != nil {
			return nil, errors.Wrap(err, "SubgraphRetriever", "Around", "expand frontier")
		}
		for _, n := range neighbors {
			if included[n.Node.ID] || claimed[n.Node.ID] {
				continue
			}
			claimed[n.Node.ID] = true
			ring = append(ring, n)
		}
	}
	sort.Slice(ring, func(a, b int) bool {
		if ring[a].Edge.Type != ring[b].Edge.Type {
			return ring[a].Edge.Type < ring[b].Edge.Type
		}
		return ring[a].Node.ID < ring[b].Node.ID
	})
	return ring, nil
}

// inducedEdges returns every edge whose both endpoints are in the node set,
// ordered by (type, from, to). Parallel edges between a pair are distinct
// members of the induced set; the dedupe key only collapses the second
// sighting of the same edge from its other endpoint.
func (r *Retriever) inducedEdges(ctx context.Context, nodes []graph.Node, included map[string]bool) ([]graph.Edge, error) {
	seen := map[string]bool{}
	edges := []graph.Edge{}
	for _, node := range nodes {
		neighbors, err := r.store.Neighbors(ctx, node.ID, 1, nil)
		if err != nil {
			return nil, errors.Wrap(err, "SubgraphRetriever", "Around", "collect induced edges")
		}
		for _, n := range neighbors {
			e := n.Edge
			if !included[e.From] || !included[e.To] {
				continue
			}
			key := edgeKey(e)
			if seen[key] {
				continue
			}
			seen[key] = true
			edges = append(edges, e)
		}
	}
	sort.SliceStable(edges, func(a, b int) bool {
		if edges[a].Type != edges[b].Type {
			return edges[a].Type < edges[b].Type
		}
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		return edges[a].To < edges[b].To
	})
	return edges, nil
}

// edgeKey identifies an edge for dedupe across its two endpoint sightings.
// Provenance is part of the identity so same-typed parallel edges backed by
// different papers both survive.
func edgeKey(e graph.Edge) string {
	key := e.From + "\x00" + e.To + "\x00" + string(e.Type)
	if e.Provenance != nil {
		key += "\x00" + e.Provenance.PaperID + "\x00" + fmt.Sprintf("%g", e.Provenance.Confidence)
	}
	return key
}
