// Package memstore implements the graph store adapter as an immutable
// in-memory snapshot with atomic replace-all loads.
//
// Each successful Load builds a complete new snapshot off to the side and
// swaps a single pointer, so concurrent readers always observe a fully
// consistent graph without per-request locking.
package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/store"
	"github.com/c360/astrograph/vocabulary"
)

// Ensure Store implements the store adapter interface
var _ store.Store = (*Store)(nil)

// adjEntry is one traversable step: the stored edge and the node on the
// other end. Edges are traversable in both directions; Edge keeps the
// stored direction.
type adjEntry struct {
	edge  graph.Edge
	other string
}

// snapshot is one immutable generation of the graph. Never mutated after
// publication.
type snapshot struct {
	generation  uint64
	nodes       map[string]graph.Node
	nodeIDs     []string // ascending
	adj         map[string][]adjEntry
	labelCounts map[vocabulary.Label]int
	typeCounts  map[vocabulary.EdgeType]int
}

// Store is an in-memory graph store with snapshot-swap load semantics.
type Store struct {
	loadMu sync.Mutex // serializes Load against itself
	snap   atomic.Pointer[snapshot]
	closed atomic.Bool
	logger *slog.Logger
}

// New creates an empty store. Generation starts at zero; Loaded reports
// false until the first successful Load.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{logger: logger}
	s.snap.Store(&snapshot{
		nodes:       map[string]graph.Node{},
		adj:         map[string][]adjEntry{},
		labelCounts: map[vocabulary.Label]int{},
		typeCounts:  map[vocabulary.EdgeType]int{},
	})
	return s
}

// current returns the live snapshot, or a store-unavailable error after Close.
func (s *Store) current() (*snapshot, error) {
	if s.closed.Load() {
		return nil, errors.ErrStoreUnavailable
	}
	return s.snap.Load(), nil
}

// Load atomically replaces the entire graph. All validation happens against
// the candidate snapshot before anything is published: on any failure the
// previous graph stays intact.
func (s *Store) Load(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.closed.Load() {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "MemStore", "Load", "store closed")
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "MemStore", "Load", "context check")
	}

	next := &snapshot{
		generation:  s.snap.Load().generation + 1,
		nodes:       make(map[string]graph.Node, len(nodes)),
		nodeIDs:     make([]string, 0, len(nodes)),
		adj:         make(map[string][]adjEntry, len(nodes)),
		labelCounts: make(map[vocabulary.Label]int),
		typeCounts:  make(map[vocabulary.EdgeType]int),
	}

	for i, node := range nodes {
		if node.ID == "" {
			return rejectf("node %d has empty id", i)
		}
		if !node.Label.IsValid() {
			return rejectf("node %q has unknown label %q", node.ID, node.Label)
		}
		if _, dup := next.nodes[node.ID]; dup {
			return rejectf("duplicate node id %q", node.ID)
		}
		next.nodes[node.ID] = node
		next.nodeIDs = append(next.nodeIDs, node.ID)
		next.labelCounts[node.Label]++
	}
	sort.Strings(next.nodeIDs)

	for i, edge := range edges {
		if !edge.Type.IsValid() {
			return rejectf("edge %d has unknown type %q", i, edge.Type)
		}
		if _, ok := next.nodes[edge.From]; !ok {
			return rejectf("edge %d (%s) references missing node %q", i, edge.Type, edge.From)
		}
		if _, ok := next.nodes[edge.To]; !ok {
			return rejectf("edge %d (%s) references missing node %q", i, edge.Type, edge.To)
		}
		next.typeCounts[edge.Type]++

		next.adj[edge.From] = append(next.adj[edge.From], adjEntry{edge: edge, other: edge.To})
		if edge.From != edge.To {
			next.adj[edge.To] = append(next.adj[edge.To], adjEntry{edge: edge, other: edge.From})
		}
	}

	// Deterministic adjacency order: edge type name, then far node ID, then
	// stored source ID so an out-edge sorts before a same-typed in-edge.
	// Stable so fully tied parallel edges keep artifact order.
	for id := range next.adj {
		entries := next.adj[id]
		sort.SliceStable(entries, func(a, b int) bool {
			if entries[a].edge.Type != entries[b].edge.Type {
				return entries[a].edge.Type < entries[b].edge.Type
			}
			if entries[a].other != entries[b].other {
				return entries[a].other < entries[b].other
			}
			return entries[a].edge.From < entries[b].edge.From
		})
	}

	s.snap.Store(next)
	s.logger.Info("graph snapshot loaded",
		"generation", next.generation,
		"nodes", len(next.nodes),
		"edges", len(edges))
	return nil
}

// rejectf builds a load rejection with detail. The previous snapshot is
// untouched by construction: nothing is published before full validation.
func rejectf(format string, args ...any) error {
	return errors.WrapInvalid(errors.ErrLoadRejected, "MemStore", "Load", fmt.Sprintf(format, args...))
}

// Node fetches a single node by ID.
func (s *Store) Node(_ context.Context, id string) (graph.Node, error) {
	snap, err := s.current()
	if err != nil {
		return graph.Node{}, errors.WrapTransient(err, "MemStore", "Node", "snapshot access")
	}
	node, ok := snap.nodes[id]
	if !ok {
		return graph.Node{}, errors.WrapInvalid(errors.ErrNodeNotFound, "MemStore", "Node",
			fmt.Sprintf("node ID: %s", id))
	}
	return node, nil
}

// Nodes returns every node ordered by ascending ID.
func (s *Store) Nodes(_ context.Context) ([]graph.Node, error) {
	snap, err := s.current()
	if err != nil {
		return nil, errors.WrapTransient(err, "MemStore", "Nodes", "snapshot access")
	}
	nodes := make([]graph.Node, 0, len(snap.nodeIDs))
	for _, id := range snap.nodeIDs {
		nodes = append(nodes, snap.nodes[id])
	}
	return nodes, nil
}

// Neighbors expands the neighborhood of a node breadth-first up to maxHops.
// Every qualifying edge yields its own entry, so parallel edges between the
// same pair each appear, and a self-loop surfaces when its node is expanded.
// A node's distance is the hop at which it is first discovered. Ring by ring,
// entries are ordered by edge type name then node ID, so repeated calls on an
// unchanged snapshot return identical sequences.
func (s *Store) Neighbors(
	ctx context.Context, id string, maxHops int, typeFilter []vocabulary.EdgeType,
) ([]graph.Neighbor, error) {
	snap, err := s.current()
	if err != nil {
		return nil, errors.WrapTransient(err, "MemStore", "Neighbors", "snapshot access")
	}
	if _, ok := snap.nodes[id]; !ok {
		return nil, errors.WrapInvalid(errors.ErrNodeNotFound, "MemStore", "Neighbors",
			fmt.Sprintf("node ID: %s", id))
	}

	var admit map[vocabulary.EdgeType]bool
	if len(typeFilter) > 0 {
		admit = make(map[vocabulary.EdgeType]bool, len(typeFilter))
		for _, et := range typeFilter {
			admit[et] = true
		}
	}

	results := []graph.Neighbor{}
	visited := map[string]bool{id: true}
	frontier := []string{id}

	for hop := 1; hop <= maxHops && len(frontier) > 0; hop++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.WrapTransient(err, "MemStore", "Neighbors", "traversal canceled")
		}

		var ring []graph.Neighbor
		for _, nodeID := range frontier {
			for _, entry := range snap.adj[nodeID] {
				if admit != nil && !admit[entry.edge.Type] {
					continue
				}
				if entry.other == nodeID {
					// Self-loop: the edge is crossed at this hop even though
					// the node was discovered earlier.
					ring = append(ring, graph.Neighbor{
						Node:     snap.nodes[nodeID],
						Edge:     entry.edge,
						Distance: hop,
					})
					continue
				}
				if visited[entry.other] {
					continue
				}
				ring = append(ring, graph.Neighbor{
					Node:     snap.nodes[entry.other],
					Edge:     entry.edge,
					Distance: hop,
				})
			}
		}

		sort.SliceStable(ring, func(a, b int) bool {
			if ring[a].Edge.Type != ring[b].Edge.Type {
				return ring[a].Edge.Type < ring[b].Edge.Type
			}
			if ring[a].Node.ID != ring[b].Node.ID {
				return ring[a].Node.ID < ring[b].Node.ID
			}
			if ring[a].Edge.From != ring[b].Edge.From {
				return ring[a].Edge.From < ring[b].Edge.From
			}
			return ring[a].Edge.To < ring[b].Edge.To
		})

		frontier = frontier[:0]
		for _, n := range ring {
			if visited[n.Node.ID] {
				continue
			}
			visited[n.Node.ID] = true
			frontier = append(frontier, n.Node.ID)
		}
		results = append(results, ring...)
	}

	return results, nil
}

// CountByLabel returns the number of nodes carrying the given label.
func (s *Store) CountByLabel(_ context.Context, label vocabulary.Label) (int, error) {
	snap, err := s.current()
	if err != nil {
		return 0, errors.WrapTransient(err, "MemStore", "CountByLabel", "snapshot access")
	}
	return snap.labelCounts[label], nil
}

// CountByType returns the number of edges of the given type.
func (s *Store) CountByType(_ context.Context, et vocabulary.EdgeType) (int, error) {
	snap, err := s.current()
	if err != nil {
		return 0, errors.WrapTransient(err, "MemStore", "CountByType", "snapshot access")
	}
	return snap.typeCounts[et], nil
}

// LabelCounts returns node counts for every label present in the graph.
func (s *Store) LabelCounts(_ context.Context) (map[vocabulary.Label]int, error) {
	snap, err := s.current()
	if err != nil {
		return nil, errors.WrapTransient(err, "MemStore", "LabelCounts", "snapshot access")
	}
	counts := make(map[vocabulary.Label]int, len(snap.labelCounts))
	for label, n := range snap.labelCounts {
		counts[label] = n
	}
	return counts, nil
}

// TypeCounts returns edge counts for every edge type present in the graph.
func (s *Store) TypeCounts(_ context.Context) (map[vocabulary.EdgeType]int, error) {
	snap, err := s.current()
	if err != nil {
		return nil, errors.WrapTransient(err, "MemStore", "TypeCounts", "snapshot access")
	}
	counts := make(map[vocabulary.EdgeType]int, len(snap.typeCounts))
	for et, n := range snap.typeCounts {
		counts[et] = n
	}
	return counts, nil
}

// Generation identifies the current snapshot.
func (s *Store) Generation() uint64 {
	return s.snap.Load().generation
}

// Loaded reports whether at least one Load has succeeded.
func (s *Store) Loaded() bool {
	return s.snap.Load().generation > 0
}

// Ping verifies the store is reachable.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return errors.WrapTransient(errors.ErrStoreUnavailable, "MemStore", "Ping", "store closed")
	}
	return nil
}

// Close releases the store. Subsequent operations fail with
// errors.ErrStoreUnavailable.
func (s *Store) Close() error {
	s.closed.Store(true)
	return nil
}
