package grounding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/graph"
	"github.com/c360/astrograph/search"
	"github.com/c360/astrograph/store/memstore"
	"github.com/c360/astrograph/vocabulary"
)

func testRetriever(t *testing.T, cfg Config) *Retriever {
	t.Helper()

	nodes := []graph.Node{
		{ID: "stressor-1", Label: vocabulary.LabelStressor, Name: "Microgravity"},
		{ID: "pheno-1", Label: vocabulary.LabelPhenotype, Name: "Bone Loss"},
		{ID: "pheno-2", Label: vocabulary.LabelPhenotype, Name: "Muscle Atrophy"},
		{ID: "organism-1", Label: vocabulary.LabelOrganism, Name: "Mus musculus"},
		{ID: "paper-1", Label: vocabulary.LabelPaper, Name: "Spaceflight and Bone Density"},
	}
	edges := []graph.Edge{
		{From: "stressor-1", To: "pheno-1", Type: vocabulary.EdgeInduces, Provenance: &graph.Provenance{PaperID: "paper-1", Confidence: 0.9}},
		{From: "stressor-1", To: "pheno-2", Type: vocabulary.EdgeInduces},
		{From: "pheno-1", To: "organism-1", Type: vocabulary.EdgeObservedIn},
		{From: "paper-1", To: "stressor-1", Type: vocabulary.EdgeStudies},
		{From: "paper-1", To: "pheno-1", Type: vocabulary.EdgeHasEntity},
	}

	s := memstore.New(nil)
	require.NoError(t, s.Load(context.Background(), nodes, edges))
	ix := search.Build(nodes)

	r, err := NewRetriever(Deps{Store: s, Index: func() *search.Index { return ix }, Config: cfg})
	require.NoError(t, err)
	return r
}

func TestRetrieveGroundsQuestion(t *testing.T) {
	r := testRetriever(t, Config{})

	ev, err := r.Retrieve(context.Background(), "What does microgravity do to bone loss?")
	require.NoError(t, err)

	require.NotEmpty(t, ev.Mentions)
	mentionIDs := make([]string, 0, len(ev.Mentions))
	for _, m := range ev.Mentions {
		mentionIDs = append(mentionIDs, m.Node.ID)
	}
	assert.Contains(t, mentionIDs, "stressor-1")
	assert.Contains(t, mentionIDs, "pheno-1")

	require.NotEmpty(t, ev.Triples)
	for i := 1; i < len(ev.Triples); i++ {
		assert.GreaterOrEqual(t, ev.Triples[i-1].Score, ev.Triples[i].Score)
	}
}

func TestRetrieveTypedEdgesOutrankGeneric(t *testing.T) {
	r := testRetriever(t, Config{})

	ev, err := r.Retrieve(context.Background(), "bone loss")
	require.NoError(t, err)
	require.NotEmpty(t, ev.Triples)

	// pheno-1 resolves exactly; among its edges INDUCES carries the highest
	// specificity and HAS_ENTITY the lowest.
	assert.Equal(t, vocabulary.EdgeInduces, ev.Triples[0].Edge.Type)
	last := ev.Triples[len(ev.Triples)-1]
	assert.Equal(t, vocabulary.EdgeHasEntity, last.Edge.Type)
}

func TestRetrieveNoGrounding(t *testing.T) {
	r := testRetriever(t, Config{})

	_, err := r.Retrieve(context.Background(), "how about the weather on tuesday")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoGrounding))
	assert.Equal(t, "no_grounding", errors.Kind(err))
}

func TestRetrieveStopwordsOnly(t *testing.T) {
	r := testRetriever(t, Config{})

	_, err := r.Retrieve(context.Background(), "what is it about")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNoGrounding))
}

func TestRetrieveEvidenceBudget(t *testing.T) {
	r := testRetriever(t, Config{EvidenceBudget: 2})

	ev, err := r.Retrieve(context.Background(), "microgravity and bone loss")
	require.NoError(t, err)
	assert.Len(t, ev.Triples, 2)
	assert.True(t, ev.Truncated)
}

func TestRetrieveParallelEdgesYieldTriples(t *testing.T) {
	nodes := []graph.Node{
		{ID: "paper-1", Label: vocabulary.LabelPaper, Name: "Paper One"},
		{ID: "stressor-1", Label: vocabulary.LabelStressor, Name: "Microgravity"},
	}
	edges := []graph.Edge{
		{From: "paper-1", To: "stressor-1", Type: vocabulary.EdgeStudies},
		{From: "paper-1", To: "stressor-1", Type: vocabulary.EdgeHasEntity},
	}
	s := memstore.New(nil)
	require.NoError(t, s.Load(context.Background(), nodes, edges))
	ix := search.Build(nodes)
	r, err := NewRetriever(Deps{Store: s, Index: func() *search.Index { return ix }})
	require.NoError(t, err)

	// Both edges between the pair become evidence, the more specific first.
	ev, err := r.Retrieve(context.Background(), "microgravity")
	require.NoError(t, err)
	require.Len(t, ev.Triples, 2)
	assert.Equal(t, vocabulary.EdgeStudies, ev.Triples[0].Edge.Type)
	assert.Equal(t, vocabulary.EdgeHasEntity, ev.Triples[1].Edge.Type)
}

func TestRetrieveDeterministic(t *testing.T) {
	r := testRetriever(t, Config{})
	ctx := context.Background()

	first, err := r.Retrieve(ctx, "microgravity effects on muscle atrophy")
	require.NoError(t, err)
	second, err := r.Retrieve(ctx, "microgravity effects on muscle atrophy")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRetrieveStemFallback(t *testing.T) {
	nodes := []graph.Node{
		{ID: "intervention-1", Label: vocabulary.LabelIntervention, Name: "Swim Training"},
	}
	s := memstore.New(nil)
	require.NoError(t, s.Load(context.Background(), nodes, nil))
	ix := search.Build(nodes)
	r, err := NewRetriever(Deps{Store: s, Index: func() *search.Index { return ix }})
	require.NoError(t, err)

	// "swimming" is beyond the fuzzy threshold of any indexed token, but its
	// stem "swim" resolves.
	ev, err := r.Retrieve(context.Background(), "swimming")
	require.NoError(t, err)
	require.NotEmpty(t, ev.Mentions)
	assert.Equal(t, "intervention-1", ev.Mentions[0].Node.ID)
}

func TestRetrieveBeforeLoad(t *testing.T) {
	s := memstore.New(nil)
	ix := search.Build(nil)
	r, err := NewRetriever(Deps{Store: s, Index: func() *search.Index { return ix }})
	require.NoError(t, err)

	_, err = r.Retrieve(context.Background(), "microgravity")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotLoaded))
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "negative weight", cfg: Config{MatchWeight: -1, SpecificityWeight: 0.4}},
		{name: "negative top_k", cfg: Config{TopK: -1}},
		{name: "negative budget", cfg: Config{EvidenceBudget: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.SetDefaults()
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
		})
	}
}

func TestMoreRelevantOrdering(t *testing.T) {
	high := Triple{Entity: graph.Node{ID: "b"}, Score: 0.9}
	low := Triple{Entity: graph.Node{ID: "a"}, Score: 0.5}
	assert.True(t, MoreRelevant(high, low))
	assert.False(t, MoreRelevant(low, high))

	// Equal scores fall back to entity ID.
	tieA := Triple{Entity: graph.Node{ID: "a"}, Score: 0.5}
	tieB := Triple{Entity: graph.Node{ID: "b"}, Score: 0.5}
	assert.True(t, MoreRelevant(tieA, tieB))
}
