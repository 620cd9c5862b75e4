package vocabulary

// Edge type registration with metadata and IRI mappings.
//
// Specificity weights drive relevance ranking in context retrieval: typed
// mechanistic edges outrank generic association and mention edges.

func init() {
	Register(EdgeUpregulates,
		WithDescription("Increased expression of the target under the subject condition"),
		WithSpecificity(1.0),
		WithIRI(RoCausallyUpstreamOf))

	Register(EdgeDownregulates,
		WithDescription("Decreased expression of the target under the subject condition"),
		WithSpecificity(1.0),
		WithIRI(RoCausallyUpstreamOf))

	Register(EdgeInduces,
		WithDescription("Stressor triggers the target phenotype"),
		WithSpecificity(0.9))

	Register(EdgeCauses,
		WithDescription("Direct causal relationship"),
		WithSpecificity(0.9),
		WithIRI(RoCausallyUpstreamOf))

	Register(EdgeTreats,
		WithDescription("Intervention mitigates the target condition"),
		WithSpecificity(0.9))

	Register(EdgeObservedIn,
		WithDescription("Phenotype observed in the target organism"),
		WithSpecificity(0.8),
		WithIRI(SioIsObservedIn))

	Register(EdgeAffects,
		WithDescription("Stressor perturbs the target biological entity"),
		WithSpecificity(0.8))

	Register(EdgeInteractsWith,
		WithDescription("Molecular interaction between subject and target"),
		WithSpecificity(0.7),
		WithIRI(RoInteractsWith))

	Register(EdgePartOf,
		WithDescription("Structural containment (subject is part of target)"),
		WithSpecificity(0.7),
		WithIRI(RoCapableOfPartOf))

	Register(EdgeStudies,
		WithDescription("Paper investigates the target entity"),
		WithSpecificity(0.6),
		WithIRI(SchemaAbout))

	Register(EdgeHasTopic,
		WithDescription("Paper belongs to the target topic cluster"),
		WithSpecificity(0.4),
		WithIRI(DcSubject))

	Register(EdgeHasEntity,
		WithDescription("Paper mentions the target entity"),
		WithSpecificity(0.4),
		WithIRI(SchemaMention))

	Register(EdgeAssociatedWith,
		WithDescription("Generic statistical association"),
		WithSpecificity(0.3),
		WithIRI(DcRelation))
}
