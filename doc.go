// Package astrograph provides a knowledge-graph query and retrieval engine
// for space biology literature corpora.
//
// The engine serves four query families over a bulk-loaded property graph of
// papers, stressors, phenotypes, organisms, and molecular entities:
//
//   - Statistics: corpus-wide node and edge counts for dashboards
//   - Search: prefix and fuzzy resolution of entity display names
//   - Subgraph: bounded-radius induced subgraphs for visualization
//   - Context: structured graph evidence grounding assistant answers
//
// The graph is immutable between load cycles. A bulk load atomically
// replaces the whole graph, rebuilds the search index, and invalidates the
// statistics cache; readers never observe a partial state. An optional NATS
// JetStream KV archive persists the last loaded export artifact so the graph
// survives restarts.
//
// Package layout:
//
//   - vocabulary: closed node label and edge type vocabularies
//   - graph: shared property-graph value types and the export artifact codec
//   - store, store/memstore: the graph store adapter and its snapshot store
//   - store/natskv: the JetStream KV artifact archive
//   - stats, search, subgraph, grounding: the query components
//   - engine: composition root owning the load cycle
//   - gateway/http: the HTTP query API
//   - config, errors, health, metric: ambient infrastructure
package astrograph
