package vocabulary

import (
	"encoding/json"
	"fmt"
)

// EdgeType classifies a directed relationship between two nodes. The set is
// closed; ParseEdgeType rejects anything else at load time.
type EdgeType string

const (
	// EdgeStudies connects a Paper to an entity it investigates.
	EdgeStudies EdgeType = "STUDIES"

	// EdgeInduces connects a Stressor to a Phenotype it triggers.
	EdgeInduces EdgeType = "INDUCES"

	// EdgeAffects connects a Stressor to a biological entity it perturbs.
	EdgeAffects EdgeType = "AFFECTS"

	// EdgeObservedIn connects a Phenotype to the Organism it was seen in.
	EdgeObservedIn EdgeType = "OBSERVED_IN"

	// EdgeCauses is a direct causal relationship.
	EdgeCauses EdgeType = "CAUSES"

	// EdgeTreats connects an Intervention to the condition it mitigates.
	EdgeTreats EdgeType = "TREATS"

	// EdgeInteractsWith connects two molecular entities.
	EdgeInteractsWith EdgeType = "INTERACTS_WITH"

	// EdgePartOf is structural containment (cell type in tissue, ...).
	EdgePartOf EdgeType = "PART_OF"

	// EdgeUpregulates is increased expression under a condition.
	EdgeUpregulates EdgeType = "UPREGULATES"

	// EdgeDownregulates is decreased expression under a condition.
	EdgeDownregulates EdgeType = "DOWNREGULATES"

	// EdgeAssociatedWith is a generic statistical association.
	EdgeAssociatedWith EdgeType = "ASSOCIATED_WITH"

	// EdgeHasEntity connects a Paper to an entity mentioned in it.
	EdgeHasEntity EdgeType = "HAS_ENTITY"

	// EdgeHasTopic connects a Paper to a Topic cluster.
	EdgeHasTopic EdgeType = "HAS_TOPIC"
)

// allEdgeTypes lists every valid edge type in canonical order.
var allEdgeTypes = []EdgeType{
	EdgeStudies,
	EdgeInduces,
	EdgeAffects,
	EdgeObservedIn,
	EdgeCauses,
	EdgeTreats,
	EdgeInteractsWith,
	EdgePartOf,
	EdgeUpregulates,
	EdgeDownregulates,
	EdgeAssociatedWith,
	EdgeHasEntity,
	EdgeHasTopic,
}

// AllEdgeTypes returns every valid edge type in canonical order.
// The returned slice is a copy.
func AllEdgeTypes() []EdgeType {
	types := make([]EdgeType, len(allEdgeTypes))
	copy(types, allEdgeTypes)
	return types
}

// String returns the string representation of the edge type
func (et EdgeType) String() string {
	return string(et)
}

// IsValid checks if the EdgeType is one of the defined constants
func (et EdgeType) IsValid() bool {
	for _, known := range allEdgeTypes {
		if et == known {
			return true
		}
	}
	return false
}

// ParseEdgeType converts a string into an EdgeType, rejecting anything
// outside the closed vocabulary.
func ParseEdgeType(s string) (EdgeType, error) {
	et := EdgeType(s)
	if !et.IsValid() {
		return "", fmt.Errorf("unknown edge type %q", s)
	}
	return et, nil
}

// MarshalJSON implements json.Marshaler so EdgeType serializes as a string
func (et EdgeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(et))
}

// UnmarshalJSON implements json.Unmarshaler with closed-set validation
func (et *EdgeType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseEdgeType(s)
	if err != nil {
		return err
	}
	*et = parsed
	return nil
}
