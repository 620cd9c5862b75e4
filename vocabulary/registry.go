package vocabulary

import (
	"sync"
)

// EdgeMetadata describes an edge type: human-readable description, a
// specificity weight used by relevance ranking, and an optional standard
// vocabulary IRI for RDF/JSON-LD export.
type EdgeMetadata struct {
	Type        EdgeType
	Description string
	Specificity float64
	StandardIRI string
}

// DefaultSpecificity is used for edge types registered without an explicit
// specificity weight. Typed domain edges should register above this;
// generic association edges below it.
const DefaultSpecificity = 0.5

// Global edge metadata registry
var (
	registryMu   sync.RWMutex
	edgeRegistry = make(map[EdgeType]EdgeMetadata)
)

// Option is a functional option for configuring edge type registration.
type Option func(*EdgeMetadata)

// WithDescription sets the human-readable description of the edge type.
func WithDescription(desc string) Option {
	return func(m *EdgeMetadata) {
		m.Description = desc
	}
}

// WithSpecificity sets the relevance weight of the edge type. Higher values
// mean the relationship carries more specific semantics; generic association
// edges should register low values so typed edges outrank them.
func WithSpecificity(weight float64) Option {
	return func(m *EdgeMetadata) {
		m.Specificity = weight
	}
}

// WithIRI sets the W3C/RDF equivalent IRI for standards compliance.
// Use constants from standards.go for common vocabularies.
func WithIRI(iri string) Option {
	return func(m *EdgeMetadata) {
		m.StandardIRI = iri
	}
}

// Register registers an edge type with its metadata in the global registry.
// Called during package initialization; re-registering overwrites, which
// lets deployments override framework defaults.
func Register(et EdgeType, opts ...Option) {
	meta := EdgeMetadata{
		Type:        et,
		Specificity: DefaultSpecificity,
	}
	for _, opt := range opts {
		opt(&meta)
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	edgeRegistry[et] = meta
}

// Metadata retrieves metadata for an edge type from the registry.
// Returns nil if the edge type is not registered.
// Thread-safe for concurrent callers.
func Metadata(et EdgeType) *EdgeMetadata {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if meta, exists := edgeRegistry[et]; exists {
		metaCopy := meta
		return &metaCopy
	}
	return nil
}

// Specificity returns the relevance weight for an edge type, falling back to
// DefaultSpecificity for unregistered types.
func Specificity(et EdgeType) float64 {
	registryMu.RLock()
	defer registryMu.RUnlock()

	if meta, exists := edgeRegistry[et]; exists {
		return meta.Specificity
	}
	return DefaultSpecificity
}
