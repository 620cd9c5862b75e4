// Package vocabulary defines the closed vocabularies of the space-biology
// knowledge graph: node labels and edge types, with a metadata registry.
//
// Both vocabularies are closed by design. Load-time validation rejects
// anything outside them, so downstream components can treat Label and
// EdgeType values as trusted tagged variants rather than open strings.
package vocabulary

import (
	"encoding/json"
	"fmt"
)

// Label classifies a graph node. The set is closed; ParseLabel rejects
// anything else at load time.
type Label string

const (
	// LabelPaper is a research publication (title, year, source IDs).
	LabelPaper Label = "Paper"

	// LabelStressor is a spaceflight stressor (microgravity, radiation, ...).
	LabelStressor Label = "Stressor"

	// LabelPhenotype is an observed biological outcome (bone loss, ...).
	LabelPhenotype Label = "Phenotype"

	// LabelOrganism is a studied organism or model system.
	LabelOrganism Label = "Organism"

	// LabelGene is a gene referenced by the corpus.
	LabelGene Label = "Gene"

	// LabelProtein is a protein referenced by the corpus.
	LabelProtein Label = "Protein"

	// LabelDisease is a disease or disorder.
	LabelDisease Label = "Disease"

	// LabelChemical is a chemical compound or drug.
	LabelChemical Label = "Chemical"

	// LabelCellType is a cell type or tissue.
	LabelCellType Label = "CellType"

	// LabelIntervention is a countermeasure or treatment protocol.
	LabelIntervention Label = "Intervention"

	// LabelTopic is a corpus-level topic cluster.
	LabelTopic Label = "Topic"
)

// allLabels lists every valid label in canonical order. Order is stable so
// aggregations and tests iterate deterministically.
var allLabels = []Label{
	LabelPaper,
	LabelStressor,
	LabelPhenotype,
	LabelOrganism,
	LabelGene,
	LabelProtein,
	LabelDisease,
	LabelChemical,
	LabelCellType,
	LabelIntervention,
	LabelTopic,
}

// AllLabels returns every valid label in canonical order.
// The returned slice is a copy.
func AllLabels() []Label {
	labels := make([]Label, len(allLabels))
	copy(labels, allLabels)
	return labels
}

// String returns the string representation of the label
func (l Label) String() string {
	return string(l)
}

// IsValid checks if the Label is one of the defined constants
func (l Label) IsValid() bool {
	for _, known := range allLabels {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLabel converts a string into a Label, rejecting anything outside the
// closed set.
func ParseLabel(s string) (Label, error) {
	l := Label(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unknown node label %q", s)
	}
	return l, nil
}

// MarshalJSON implements json.Marshaler so Label serializes as a string
func (l Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler with closed-set validation
func (l *Label) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLabel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
