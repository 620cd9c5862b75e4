package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/vocabulary"
)

const sampleArtifact = `[
  {"op": "create_node", "node": {"id": "stressor-1", "label": "Stressor", "name": "Microgravity"}},
  {"op": "create_node", "node": {"id": "pheno-1", "label": "Phenotype", "name": "Bone Loss"}},
  {"op": "create_edge", "edge": {"from": "stressor-1", "to": "pheno-1", "type": "INDUCES", "provenance": {"paper_id": "paper-9", "confidence": 0.9}}}
]`

func TestDecodeExport(t *testing.T) {
	nodes, edges, err := DecodeExport(strings.NewReader(sampleArtifact))
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	assert.Equal(t, "stressor-1", nodes[0].ID)
	assert.Equal(t, vocabulary.LabelStressor, nodes[0].Label)
	assert.Equal(t, "Microgravity", nodes[0].Name)

	require.Len(t, edges, 1)
	assert.Equal(t, vocabulary.EdgeInduces, edges[0].Type)
	require.NotNil(t, edges[0].Provenance)
	assert.Equal(t, "paper-9", edges[0].Provenance.PaperID)
	assert.InDelta(t, 0.9, edges[0].Provenance.Confidence, 1e-9)
}

func TestDecodeExportRejectsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		artifact string
	}{
		{name: "not an array", artifact: `{"op": "create_node"}`},
		{name: "unknown op", artifact: `[{"op": "delete_node", "node": {"id": "n1", "label": "Paper", "name": "x"}}]`},
		{name: "node without payload", artifact: `[{"op": "create_node"}]`},
		{name: "edge without payload", artifact: `[{"op": "create_edge"}]`},
		{name: "node with empty id", artifact: `[{"op": "create_node", "node": {"id": "", "label": "Paper", "name": "x"}}]`},
		{name: "edge with empty endpoint", artifact: `[{"op": "create_edge", "edge": {"from": "", "to": "n2", "type": "STUDIES"}}]`},
		{name: "out of vocabulary label", artifact: `[{"op": "create_node", "node": {"id": "n1", "label": "Spacecraft", "name": "x"}}]`},
		{name: "out of vocabulary edge type", artifact: `[{"op": "create_edge", "edge": {"from": "n1", "to": "n2", "type": "ORBITS"}}]`},
		{name: "truncated array", artifact: `[{"op": "create_node", "node": {"id": "n1", "label": "Paper", "name": "x"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeExport(strings.NewReader(tt.artifact))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err), "expected invalid classification, got %v", err)
		})
	}
}

func TestDecodeExportEmptyArray(t *testing.T) {
	nodes, edges, err := DecodeExport(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
}

func TestEncodeExportRoundTrip(t *testing.T) {
	nodes := []Node{
		{ID: "paper-1", Label: vocabulary.LabelPaper, Name: "Spaceflight and Stem Cells", Attrs: map[string]any{"year": float64(2021)}},
		{ID: "stressor-1", Label: vocabulary.LabelStressor, Name: "Microgravity"},
	}
	edges := []Edge{
		{From: "paper-1", To: "stressor-1", Type: vocabulary.EdgeStudies},
	}

	data, err := EncodeExport(nodes, edges)
	require.NoError(t, err)

	gotNodes, gotEdges, err := DecodeExport(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, nodes, gotNodes)
	assert.Equal(t, edges, gotEdges)
}
