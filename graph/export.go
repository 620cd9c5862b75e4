package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/c360/astrograph/errors"
)

// Export artifact decoding.
//
// The bulk-load artifact is an ordered JSON array of creation statements,
// produced by the corpus export job. Node statements must precede the edge
// statements that reference them, but the decoder does not rely on that:
// referential integrity is enforced by the store at load time.
//
//	[
//	  {"op": "create_node", "node": {"id": "stressor-1", "label": "Stressor", "name": "Microgravity"}},
//	  {"op": "create_edge", "edge": {"from": "stressor-1", "to": "pheno-2", "type": "INDUCES"}}
//	]

// Statement ops in the export artifact.
const (
	OpCreateNode = "create_node"
	OpCreateEdge = "create_edge"
)

// Statement is a single entry of the export artifact.
type Statement struct {
	Op   string `json:"op"`
	Node *Node  `json:"node,omitempty"`
	Edge *Edge  `json:"edge,omitempty"`
}

// DecodeExport decodes an export artifact into its node and edge sets.
// Statements are decoded in order; label and edge-type fields are validated
// against the closed vocabularies as they are parsed. Malformed statements
// fail the whole decode, since a partial artifact must never be loaded.
func DecodeExport(r io.Reader) ([]Node, []Edge, error) {
	dec := json.NewDecoder(r)

	// Opening bracket of the statement array
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
			fmt.Sprintf("artifact is not a JSON array: %v", err))
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
			fmt.Sprintf("artifact must start with '[', got %v", tok))
	}

	var (
		nodes []Node
		edges []Edge
		index int
	)

	for dec.More() {
		var stmt Statement
		if err := dec.Decode(&stmt); err != nil {
			return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
				fmt.Sprintf("statement %d: %v", index, err))
		}

		switch stmt.Op {
		case OpCreateNode:
			if stmt.Node == nil {
				return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
					fmt.Sprintf("statement %d: create_node without node payload", index))
			}
			if stmt.Node.ID == "" {
				return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
					fmt.Sprintf("statement %d: node has empty id", index))
			}
			nodes = append(nodes, *stmt.Node)
		case OpCreateEdge:
			if stmt.Edge == nil {
				return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
					fmt.Sprintf("statement %d: create_edge without edge payload", index))
			}
			if stmt.Edge.From == "" || stmt.Edge.To == "" {
				return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
					fmt.Sprintf("statement %d: edge has empty endpoint", index))
			}
			edges = append(edges, *stmt.Edge)
		default:
			return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
				fmt.Sprintf("statement %d: unknown op %q", index, stmt.Op))
		}
		index++
	}

	// Closing bracket
	if _, err := dec.Token(); err != nil {
		return nil, nil, errors.WrapInvalid(errors.ErrParsingFailed, "Export", "DecodeExport",
			fmt.Sprintf("artifact truncated after %d statements: %v", index, err))
	}

	return nodes, edges, nil
}

// EncodeExport renders node and edge sets back into artifact form. Used by
// the snapshot archive so a restored artifact replays through the same load
// path as a fresh one.
func EncodeExport(nodes []Node, edges []Edge) ([]byte, error) {
	statements := make([]Statement, 0, len(nodes)+len(edges))
	for i := range nodes {
		statements = append(statements, Statement{Op: OpCreateNode, Node: &nodes[i]})
	}
	for i := range edges {
		statements = append(statements, Statement{Op: OpCreateEdge, Edge: &edges[i]})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	if err := enc.Encode(statements); err != nil {
		return nil, errors.Wrap(err, "Export", "EncodeExport", "encode statements")
	}
	return buf.Bytes(), nil
}
