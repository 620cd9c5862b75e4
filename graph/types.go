// Package graph provides the property-graph value types shared across the
// engine: nodes, edges, neighbors, and bounded subgraphs.
package graph

import (
	"github.com/c360/astrograph/vocabulary"
)

// Node is a graph entity. ID is unique and immutable once created; Label
// comes from the closed vocabulary; Name is the display name used by search
// and visualization; Attrs carries label-specific attributes (Paper: title,
// year, source IDs; Stressor/Phenotype: canonical name, description).
type Node struct {
	ID    string           `json:"id"`
	Label vocabulary.Label `json:"label"`
	Name  string           `json:"name"`
	Attrs map[string]any   `json:"attrs,omitempty"`
}

// Provenance records where a relationship claim comes from.
type Provenance struct {
	PaperID    string  `json:"paper_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"` // 0.0-1.0
}

// Edge is a directed, typed relationship between two existing nodes.
type Edge struct {
	From       string              `json:"from"`
	To         string              `json:"to"`
	Type       vocabulary.EdgeType `json:"type"`
	Provenance *Provenance         `json:"provenance,omitempty"`
}

// Neighbor is one step of a neighborhood expansion: the node reached, the
// edge that reached it, and its hop distance from the origin.
type Neighbor struct {
	Node     Node `json:"node"`
	Edge     Edge `json:"edge"`
	Distance int  `json:"distance"`
}

// Subgraph is a bounded induced subgraph: a node set plus exactly the edges
// of the full graph whose both endpoints lie in that set. Node and edge
// ordering is deterministic for reproducible rendering.
type Subgraph struct {
	SeedID    string `json:"seed_id"`
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Truncated bool   `json:"truncated"`
}

// Stats is the corpus-wide count snapshot served to dashboards.
// TotalNodes and TotalEdges are structurally the sums of the maps.
type Stats struct {
	LabelCounts map[vocabulary.Label]int    `json:"label_counts"`
	TypeCounts  map[vocabulary.EdgeType]int `json:"type_counts"`
	TotalNodes  int                         `json:"total_nodes"`
	TotalEdges  int                         `json:"total_edges"`
}
