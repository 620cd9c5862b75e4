// Package search provides the in-memory name index used to resolve partial
// or misspelled entity names to ranked candidates.
//
// The index is immutable once built. Load cycles rebuild it wholesale from
// the store's node set and swap the reference; there are no incremental
// updates. Suggest performs no I/O.
package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"

	"github.com/c360/astrograph/graph"
)

// MatchKind classifies how a candidate matched the query, strongest first.
type MatchKind int

const (
	// MatchExact is a case-insensitive match of the full display name.
	MatchExact MatchKind = iota
	// MatchPrefix means the full display name starts with the query.
	MatchPrefix
	// MatchToken means some token of the display name equals or starts
	// with the query without the name itself doing so.
	MatchToken
	// MatchFuzzy is an edit-distance match within the query's threshold.
	MatchFuzzy
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchToken:
		return "token"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// Match is one ranked suggestion.
type Match struct {
	Node graph.Node
	Kind MatchKind
	// Distance is the Levenshtein distance for fuzzy matches, zero otherwise.
	Distance int
	// Confidence in (0,1]; exact matches score 1.0 and fuzzier kinds score
	// strictly lower. Consumed by context retrieval as the match-confidence
	// term of its relevance score.
	Confidence float64
}

// entry is one indexed node: folded full name plus its token split.
type entry struct {
	node   graph.Node
	folded string
	tokens []string
}

// Index is an immutable lookup over entity display names.
type Index struct {
	entries []entry // ascending node ID
}

// Build indexes the given nodes. Entries are held in ascending node ID order
// so scans produce ID-sorted candidates before ranking.
func Build(nodes []graph.Node) *Index {
	entries := make([]entry, 0, len(nodes))
	for _, node := range nodes {
		folded := fold(node.Name)
		entries = append(entries, entry{
			node:   node,
			folded: folded,
			tokens: tokenize(folded),
		})
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].node.ID < entries[b].node.ID
	})
	return &Index{entries: entries}
}

// Len returns the number of indexed nodes.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// FuzzyThreshold is the maximum Levenshtein distance admitted for a query of
// the given rune length. Short queries tolerate one edit; the allowance grows
// with query length.
func FuzzyThreshold(queryLen int) int {
	return 1 + queryLen/4
}

// Suggest returns up to limit candidates ranked by match strength. An empty
// or whitespace-only query returns an empty result and no error.
func (ix *Index) Suggest(query string, limit int) []Match {
	q := fold(query)
	if q == "" || limit <= 0 {
		return nil
	}
	maxDist := FuzzyThreshold(len([]rune(q)))

	var matches []Match
	for _, e := range ix.entries {
		if m, ok := classify(e, q, maxDist); ok {
			matches = append(matches, m)
		}
	}

	// Entries scan in ID order, so a stable sort on the relevance ordering
	// leaves ties broken by ascending node ID.
	sort.SliceStable(matches, func(a, b int) bool {
		return Less(matches[a], matches[b])
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Less is the total relevance ordering over matches: stronger kind first,
// then smaller edit distance, then ascending node ID. Pure so ranking is
// testable without an index.
func Less(a, b Match) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.Node.ID < b.Node.ID
}

// classify grades one entry against the folded query.
func classify(e entry, q string, maxDist int) (Match, bool) {
	if e.folded == q {
		return Match{Node: e.node, Kind: MatchExact, Confidence: 1.0}, true
	}
	if strings.HasPrefix(e.folded, q) {
		return Match{Node: e.node, Kind: MatchPrefix, Confidence: 0.9}, true
	}
	for _, tok := range e.tokens {
		if strings.HasPrefix(tok, q) {
			return Match{Node: e.node, Kind: MatchToken, Confidence: 0.8}, true
		}
	}

	best := maxDist + 1
	if d := edlib.LevenshteinDistance(q, e.folded); d < best {
		best = d
	}
	for _, tok := range e.tokens {
		if d := edlib.LevenshteinDistance(q, tok); d < best {
			best = d
		}
	}
	if best <= maxDist {
		conf := 0.7 * (1 - float64(best)/float64(maxDist+1))
		return Match{Node: e.node, Kind: MatchFuzzy, Distance: best, Confidence: conf}, true
	}
	return Match{}, false
}

// fold lowercases and trims a name or query for comparison.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// tokenize splits a folded name on any non-alphanumeric rune.
func tokenize(folded string) []string {
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
