// Package store defines the graph store adapter: the ownership boundary
// around the persistent property graph.
//
// Load is the only mutating operation and is all-or-nothing: it either
// installs the complete node/edge set or leaves the previous graph intact.
// Every other operation is a pure read against the current snapshot, so
// readers never need per-request locking.
package store

import (
	"context"

	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/vocabulary"
)

// Store is the read boundary over the property graph plus the single
// bulk-load entry point.
//
// Implementations must guarantee snapshot isolation: readers concurrent with
// a Load observe either the pre-load graph in full or the post-load graph in
// full, never a partial state.
type Store interface {
	// Load atomically replaces the entire graph. It fails without side
	// effects if any edge references a missing endpoint, any label or edge
	// type falls outside the closed vocabularies, or node IDs collide.
	// Failures carry errors.ErrLoadRejected.
	Load(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error

	// Node fetches a single node by ID, failing with errors.ErrNodeNotFound
	// if it is absent.
	Node(ctx context.Context, id string) (graph.Node, error)

	// Nodes returns every node ordered by ascending ID. Used for wholesale
	// index rebuilds after a load cycle.
	Nodes(ctx context.Context) ([]graph.Node, error)

	// Neighbors expands the neighborhood of a node up to maxHops hops,
	// treating edges as traversable in both directions while preserving
	// their stored direction. An empty typeFilter admits all edge types.
	// Results are deterministically ordered (distance, then edge type name,
	// then node ID). Fails with errors.ErrNodeNotFound for an unknown ID.
	Neighbors(ctx context.Context, id string, maxHops int, typeFilter []vocabulary.EdgeType) ([]graph.Neighbor, error)

	// CountByLabel returns the number of nodes carrying the given label.
	CountByLabel(ctx context.Context, label vocabulary.Label) (int, error)

	// CountByType returns the number of edges of the given type.
	CountByType(ctx context.Context, et vocabulary.EdgeType) (int, error)

	// LabelCounts returns node counts for every label present in the graph.
	LabelCounts(ctx context.Context) (map[vocabulary.Label]int, error)

	// TypeCounts returns edge counts for every edge type present in the graph.
	TypeCounts(ctx context.Context) (map[vocabulary.EdgeType]int, error)

	// Generation identifies the current snapshot. It increases on every
	// successful Load; caches key their memoized state to it.
	Generation() uint64

	// Loaded reports whether at least one Load has succeeded.
	Loaded() bool

	// Ping verifies the store is reachable, failing with
	// errors.ErrStoreUnavailable when it is not.
	Ping(ctx context.Context) error

	// Close releases the store connection. Reads after Close are undefined.
	Close() error
}
