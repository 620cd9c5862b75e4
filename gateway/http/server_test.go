package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/astrograph/config"
	"github.com/c360/astrograph/engine"
	"github.com/c360/astrograph/metric"
	"github.com/c360/astrograph/store/memstore"
)

const testArtifact = `[
  {"op": "create_node", "node": {"id": "stressor-1", "label": "Stressor", "name": "Microgravity"}},
  {"op": "create_node", "node": {"id": "pheno-1", "label": "Phenotype", "name": "Bone Loss"}},
  {"op": "create_edge", "edge": {"from": "stressor-1", "to": "pheno-1", "type": "INDUCES"}}
]`

func testServer(t *testing.T, loaded bool) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	registry := metric.NewMetricsRegistry()
	eng, err := engine.New(engine.Deps{Store: memstore.New(nil), Config: cfg, Metrics: registry.CoreMetrics()})
	require.NoError(t, err)
	if loaded {
		require.NoError(t, eng.LoadArtifact(context.Background(), strings.NewReader(testArtifact)))
	}

	srv, err := NewServer(Deps{Engine: eng, Config: cfg, Registry: registry})
	require.NoError(t, err)
	return srv
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStatsEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var got struct {
		LabelCounts map[string]int `json:"label_counts"`
		TotalNodes  int            `json:"total_nodes"`
		TotalEdges  int            `json:"total_edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.TotalNodes)
	assert.Equal(t, 1, got.TotalEdges)
	assert.Equal(t, 1, got.LabelCounts["Stressor"])
}

func TestStatsBeforeLoad(t *testing.T) {
	srv := testServer(t, false)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var payload struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "not_loaded", payload.Error.Kind)
}

func TestSearchEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/search?q=micro&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Query   string `json:"query"`
		Results []struct {
			ID   string `json:"id"`
			Kind string `json:"kind"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "micro", got.Query)
	require.NotEmpty(t, got.Results)
	assert.Equal(t, "stressor-1", got.Results[0].ID)
	assert.Equal(t, "prefix", got.Results[0].Kind)
}

func TestSearchEmptyQueryReturnsEmptyList(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/search?q=", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestSearchInvalidLimit(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/search?q=micro&limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestSubgraphEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/subgraph?seed=microgravity&radius=1&max_nodes=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		SeedID string `json:"seed_id"`
		Nodes  []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Edges []struct {
			Type string `json:"type"`
		} `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "stressor-1", got.SeedID)
	assert.Len(t, got.Nodes, 2)
	assert.Len(t, got.Edges, 1)
}

func TestSubgraphNoMatch(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/subgraph?seed=zzzzzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_match")
}

func TestSubgraphMissingSeed(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/subgraph", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssistantContextEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/assistant-context",
		`{"question": "what does microgravity induce?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Triples []struct {
			Score float64 `json:"score"`
		} `json:"triples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.Triples)
}

func TestAssistantContextNoGrounding(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/assistant-context",
		`{"question": "what is the weather like"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_grounding")
}

func TestAssistantContextBadBody(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/assistant-context", `{"question": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/assistant-context", `{"question": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoadEndpoint(t *testing.T) {
	srv := testServer(t, false)

	rec := doRequest(t, srv, http.MethodPost, "/api/load", testArtifact)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoadRejectedArtifact(t *testing.T) {
	srv := testServer(t, true)

	bad := `[{"op": "create_edge", "edge": {"from": "ghost", "to": "nowhere", "type": "INDUCES"}}]`
	rec := doRequest(t, srv, http.MethodPost, "/api/load", bad)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "load_rejected")

	// Previous graph still serves.
	rec = doRequest(t, srv, http.MethodGet, "/api/stats", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzBeforeLoad(t *testing.T) {
	srv := testServer(t, false)

	rec := doRequest(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthzReportsSubStatuses(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"component":"store"`)
	assert.Contains(t, rec.Body.String(), `"component":"snapshot"`)
}

func TestMethodNotAllowed(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodPost, "/api/stats", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSHeaders(t *testing.T) {
	srv := testServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/stats", nil)
	req.Header.Set("Origin", "https://dashboard.local")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dashboard.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, true)

	rec := doRequest(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "astrograph_queries_total")
}