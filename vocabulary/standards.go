package vocabulary

// Standard vocabulary IRIs used in edge metadata mappings.
const (
	// Schema.org
	SchemaAbout   = "http://schema.org/about"
	SchemaMention = "http://schema.org/mentions"

	// Dublin Core
	DcRelation = "http://purl.org/dc/terms/relation"
	DcSubject  = "http://purl.org/dc/terms/subject"

	// Relation Ontology (OBO)
	RoCausallyUpstreamOf = "http://purl.obolibrary.org/obo/RO_0002411"
	RoCapableOfPartOf    = "http://purl.obolibrary.org/obo/BFO_0000050"
	RoInteractsWith      = "http://purl.obolibrary.org/obo/RO_0002434"

	// SIO (Semanticscience Integrated Ontology)
	SioIsObservedIn = "http://semanticscience.org/resource/SIO_000062"
)
