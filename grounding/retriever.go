// Package grounding selects graph evidence for a free-text question so a
// downstream assistant can generate an answer constrained by data.
//
// The retriever never composes prose. It resolves entity mentions through the
// search index, pulls their immediate neighborhoods, ranks the resulting
// triples, and returns them as structured evidence under a fixed budget.
package grounding

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/surgebase/porter2"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/search"
	"github.com/c360/astrograph/store"
	"github.com/c360/astrograph/vocabulary"
)

// Config tunes mention extraction and triple ranking.
type Config struct {
	// MatchWeight scales the search-match confidence term of the relevance
	// score. The relative weighting against SpecificityWeight is deliberately
	// tunable rather than fixed.
	MatchWeight float64 `json:"match_weight"`
	// SpecificityWeight scales the edge-specificity term.
	SpecificityWeight float64 `json:"specificity_weight"`
	// TopK is the number of candidates considered per token window.
	TopK int `json:"top_k"`
	// MaxWindow is the longest token window, in tokens, tried as a mention.
	MaxWindow int `json:"max_window"`
	// EvidenceBudget is the maximum number of triples returned.
	EvidenceBudget int `json:"evidence_budget"`
}

// SetDefaults applies default values for unset fields.
func (c *Config) SetDefaults() {
	if c.MatchWeight == 0 {
		c.MatchWeight = 0.6
	}
	if c.SpecificityWeight == 0 {
		c.SpecificityWeight = 0.4
	}
	if c.TopK == 0 {
		c.TopK = 3
	}
	if c.MaxWindow == 0 {
		c.MaxWindow = 3
	}
	if c.EvidenceBudget == 0 {
		c.EvidenceBudget = 20
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MatchWeight < 0 || c.SpecificityWeight < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ContextRetriever", "Validate",
			"ranking weights must be non-negative")
	}
	if c.MatchWeight == 0 && c.SpecificityWeight == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ContextRetriever", "Validate",
			"at least one ranking weight must be positive")
	}
	if c.TopK < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ContextRetriever", "Validate",
			fmt.Sprintf("top_k must be positive, got %d", c.TopK))
	}
	if c.MaxWindow < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ContextRetriever", "Validate",
			fmt.Sprintf("max_window must be positive, got %d", c.MaxWindow))
	}
	if c.EvidenceBudget < 1 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "ContextRetriever", "Validate",
			fmt.Sprintf("evidence_budget must be positive, got %d", c.EvidenceBudget))
	}
	return nil
}

// Mention is a question fragment resolved to a graph entity.
type Mention struct {
	Text       string     `json:"text"`
	Node       graph.Node `json:"node"`
	Confidence float64    `json:"confidence"`
}

// Triple is one unit of evidence: a resolved entity, one of its edges, and
// the node on the other end.
type Triple struct {
	Entity   graph.Node `json:"entity"`
	Edge     graph.Edge `json:"edge"`
	Neighbor graph.Node `json:"neighbor"`
	Score    float64    `json:"score"`
}

// Evidence is the structured grounding result for one question.
type Evidence struct {
	Mentions  []Mention `json:"mentions"`
	Triples   []Triple  `json:"triples"`
	Truncated bool      `json:"truncated"`
}

// Deps holds the dependencies for constructing a Retriever.
type Deps struct {
	Store  store.Store
	Index  func() *search.Index
	Config Config
	Logger *slog.Logger
}

// Retriever grounds free-text questions in the graph.
type Retriever struct {
	store  store.Store
	index  func() *search.Index
	cfg    Config
	logger *slog.Logger
}

// NewRetriever creates a context retriever.
func NewRetriever(deps Deps) (*Retriever, error) {
	if deps.Store == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "ContextRetriever", "NewRetriever", "store is required")
	}
	if deps.Index == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "ContextRetriever", "NewRetriever", "index provider is required")
	}
	cfg := deps.Config
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{store: deps.Store, index: deps.Index, cfg: cfg, logger: logger}, nil
}

// Retrieve grounds a question. It fails with errors.ErrNoGrounding when no
// token window resolves to an entity above the fuzzy threshold; it never
// fabricates evidence.
func (r *Retriever) Retrieve(ctx context.Context, question string) (Evidence, error) {
	if !r.store.Loaded() {
		return Evidence{}, errors.WrapInvalid(errors.ErrNotLoaded, "ContextRetriever", "Retrieve", "no graph loaded")
	}

	mentions := r.extractMentions(question)
	if len(mentions) == 0 {
		return Evidence{}, errors.WrapInvalid(errors.ErrNoGrounding, "ContextRetriever", "Retrieve",
			fmt.Sprintf("question %q", question))
	}

	triples, err := r.collectTriples(ctx, mentions)
	if err != nil {
		return Evidence{}, err
	}

	sort.SliceStable(triples, func(a, b int) bool {
		return MoreRelevant(triples[a], triples[b])
	})

	ev := Evidence{Mentions: mentions, Triples: triples}
	if len(ev.Triples) > r.cfg.EvidenceBudget {
		ev.Triples = ev.Triples[:r.cfg.EvidenceBudget]
		ev.Truncated = true
	}

	r.logger.Debug("question grounded",
		"mentions", len(ev.Mentions),
		"triples", len(ev.Triples),
		"truncated", ev.Truncated)
	return ev, nil
}

// extractMentions slides token windows over the question and resolves each
// through the search index, falling back to stemmed tokens when the raw
// window finds nothing. The strongest match wins per entity.
func (r *Retriever) extractMentions(question string) []Mention {
	tokens := contentTokens(question)
	if len(tokens) == 0 {
		return nil
	}

	best := map[string]Mention{}
	// Longer windows first so multi-token names claim their entity before a
	// single-token fragment does.
	for width := min(r.cfg.MaxWindow, len(tokens)); width >= 1; width-- {
		for start := 0; start+width <= len(tokens); start++ {
			window := strings.Join(tokens[start:start+width], " ")
			matches := r.index().Suggest(window, r.cfg.TopK)
			if len(matches) == 0 {
				stemmed := stemWindow(tokens[start : start+width])
				if stemmed != window {
					matches = r.index().Suggest(stemmed, r.cfg.TopK)
				}
			}
			for _, m := range matches {
				prev, ok := best[m.Node.ID]
				if !ok || m.Confidence > prev.Confidence {
					best[m.Node.ID] = Mention{Text: window, Node: m.Node, Confidence: m.Confidence}
				}
			}
		}
	}

	mentions := make([]Mention, 0, len(best))
	for _, m := range best {
		mentions = append(mentions, m)
	}
	sort.Slice(mentions, func(a, b int) bool {
		if mentions[a].Confidence != mentions[b].Confidence {
			return mentions[a].Confidence > mentions[b].Confidence
		}
		return mentions[a].Node.ID < mentions[b].Node.ID
	})
	return mentions
}

// collectTriples pulls the 1-hop neighborhood of every mention and scores
// each (entity, edge, neighbor) triple.
func (r *Retriever) collectTriples(ctx context.Context, mentions []Mention) ([]Triple, error) {
	var triples []Triple
	for _, mention := range mentions {
		neighbors, err := r.store.Neighbors(ctx, mention.Node.ID, 1, nil)
		if err != nil {
			return nil, errors.Wrap(err, "ContextRetriever", "Retrieve", "expand mention neighborhood")
		}
		for _, n := range neighbors {
			triples = append(triples, Triple{
				Entity:   mention.Node,
				Edge:     n.Edge,
				Neighbor: n.Node,
				Score:    r.score(mention.Confidence, n.Edge.Type),
			})
		}
	}
	return triples, nil
}

// score combines match confidence with edge specificity under the configured
// weights, so typed edges outrank generic ones at equal confidence.
func (r *Retriever) score(matchConfidence float64, et vocabulary.EdgeType) float64 {
	return r.cfg.MatchWeight*matchConfidence + r.cfg.SpecificityWeight*vocabulary.Specificity(et)
}

// MoreRelevant is the total ordering over evidence triples: higher score
// first, ties broken by entity ID, edge type, then neighbor ID. Pure so
// ranking is testable without a store.
func MoreRelevant(a, b Triple) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Entity.ID != b.Entity.ID {
		return a.Entity.ID < b.Entity.ID
	}
	if a.Edge.Type != b.Edge.Type {
		return a.Edge.Type < b.Edge.Type
	}
	return a.Neighbor.ID < b.Neighbor.ID
}

// contentTokens lowercases, tokenizes, and strips stopwords from a question.
func contentTokens(question string) []string {
	raw := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if stopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// stemWindow joins the Porter2 stems of a token window.
func stemWindow(tokens []string) string {
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = porter2.Stem(tok)
	}
	return strings.Join(stems, " ")
}

// stopwords are question scaffolding never worth resolving as mentions.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "in": true, "on": true,
	"to": true, "for": true, "with": true, "and": true, "or": true, "by": true,
	"about": true, "between": true, "from": true, "as": true, "at": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"do": true, "does": true, "did": true, "have": true, "has": true, "had": true,
	"can": true, "could": true, "will": true, "would": true, "should": true,
	"what": true, "which": true, "how": true, "why": true, "when": true,
	"where": true, "who": true, "that": true, "this": true, "these": true,
	"those": true, "it": true, "its": true,
}
