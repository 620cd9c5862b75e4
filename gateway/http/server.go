// Package http serves the query API over HTTP: statistics, search,
// subgraph, assistant context, bulk load, health, and metrics.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/c360/astrograph/config"
	"github.com/c360/astrograph/engine"
	"github.com/c360/astrograph/errors"
	"github.com/c360/astrograph/metric"
)

// Deps holds the dependencies for constructing a Server.
type Deps struct {
	Engine   *engine.Engine
	Config   *config.Config
	Registry *metric.MetricsRegistry
	Logger   *slog.Logger
}

// Server is the HTTP gateway over the query engine.
type Server struct {
	engine   *engine.Engine
	cfg      *config.Config
	registry *metric.MetricsRegistry
	logger   *slog.Logger

	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates the gateway server.
func NewServer(deps Deps) (*Server, error) {
	if deps.Engine == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Server", "NewServer", "engine is required")
	}
	if deps.Config == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Server", "NewServer", "config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine:   deps.Engine,
		cfg:      deps.Config,
		registry: deps.Registry,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", s.wrap(http.MethodGet, s.handleStats))
	mux.HandleFunc("/api/search", s.wrap(http.MethodGet, s.handleSearch))
	mux.HandleFunc("/api/subgraph", s.wrap(http.MethodGet, s.handleSubgraph))
	mux.HandleFunc("/api/assistant-context", s.wrap(http.MethodPost, s.handleAssistantContext))
	mux.HandleFunc("/api/load", s.wrap(http.MethodPost, s.handleLoad))
	mux.HandleFunc("/healthz", s.wrap(http.MethodGet, s.handleHealthz))
	mux.HandleFunc("/readyz", s.wrap(http.MethodGet, s.handleReadyz))
	if deps.Registry != nil {
		mux.Handle("/metrics", deps.Registry.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              deps.Config.Service.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start runs the HTTP server until Shutdown. It blocks.
func (s *Server) Start() error {
	if !s.running.CompareAndSwap(false, true) {
		return errors.WrapFatal(errors.ErrAlreadyStarted, "Server", "Start", "server already running")
	}
	s.logger.Info("query API listening", "addr", s.cfg.Service.HTTPAddr)

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return errors.WrapFatal(err, "Server", "Start", "listen and serve")
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.WrapTransient(err, "Server", "Shutdown", "graceful shutdown")
	}
	return nil
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// wrap applies the shared request plumbing: request ID, CORS, method filter,
// body size limit, and request timeout.
func (s *Server) wrap(method string, handler func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		s.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != method {
			s.writeError(w, http.StatusMethodNotAllowed, "invalid_request",
				fmt.Sprintf("method %s not allowed", r.Method))
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Service.MaxRequestBytes)
		defer r.Body.Close()

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Service.RequestTimeout)
		defer cancel()

		start := time.Now()
		handler(w, r.WithContext(ctx))
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start))
	}
}

// applyCORS applies CORS headers when the origin is allowed.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")

	allowed := false
	for _, allowedOrigin := range s.cfg.Service.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}

	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	result, err := s.engine.Stats(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// searchResult is the wire shape of one suggestion.
type searchResult struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := s.cfg.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = min(parsed, s.cfg.Search.MaxLimit)
	}

	matches, err := s.engine.Suggest(r.Context(), query, limit)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	results := make([]searchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, searchResult{
			ID:         m.Node.ID,
			Label:      m.Node.Label.String(),
			Name:       m.Node.Name,
			Kind:       m.Kind.String(),
			Confidence: m.Confidence,
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"query": query, "results": results})
}

func (s *Server) handleSubgraph(w http.ResponseWriter, r *http.Request) {
	seed := strings.TrimSpace(r.URL.Query().Get("seed"))
	if seed == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "seed parameter is required")
		return
	}

	radius, ok := s.boundedIntParam(w, r, "radius", s.cfg.Subgraph.DefaultRadius, 0, s.cfg.Subgraph.MaxRadius)
	if !ok {
		return
	}
	maxNodes, ok := s.boundedIntParam(w, r, "max_nodes", s.cfg.Subgraph.DefaultMaxNodes, 1, s.cfg.Subgraph.MaxMaxNodes)
	if !ok {
		return
	}

	result, err := s.engine.Subgraph(r.Context(), seed, radius, maxNodes)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// contextRequest is the assistant-context request body.
type contextRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAssistantContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.writeError(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	evidence, err := s.engine.Context(r.Context(), req.Question)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, evidence)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.LoadArtifact(r.Context(), r.Body); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "loaded"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := s.engine.Health(r.Context())
	code := http.StatusOK
	if status.IsUnhealthy() {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, status)
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Ready(r.Context()) {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]bool{"ready": false})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// boundedIntParam parses an optional integer query parameter and clamps it to
// the configured ceiling. A malformed or out-of-range value is a 400.
func (s *Server) boundedIntParam(w http.ResponseWriter, r *http.Request, name string, def, floor, ceil int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < floor {
		s.writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return min(parsed, ceil), true
}

// errorPayload is the wire shape of every error response.
type errorPayload struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// writeEngineError maps a taxonomy error to an HTTP status plus a sanitized
// machine-readable payload. Internal detail stays in the logs.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	kind := errors.Kind(err)
	s.logger.Warn("request failed", "kind", kind, "error", err)
	s.writeError(w, statusForKind(kind), kind, messageForKind(kind))
}

// statusForKind maps error kinds to HTTP status codes.
func statusForKind(kind string) int {
	switch kind {
	case "not_found", "no_match", "no_grounding":
		return http.StatusNotFound
	case "load_rejected":
		return http.StatusUnprocessableEntity
	case "invalid_request":
		return http.StatusBadRequest
	case "store_unavailable", "not_loaded":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageForKind returns a safe human-readable message per kind; internal
// error text never reaches clients.
func messageForKind(kind string) string {
	switch kind {
	case "not_found":
		return "node not found"
	case "no_match":
		return "no candidate matched the query"
	case "no_grounding":
		return "no entity mentions resolved from the question"
	case "load_rejected":
		return "load rejected: artifact is malformed or referentially inconsistent"
	case "invalid_request":
		return "invalid request"
	case "store_unavailable":
		return "graph store unavailable"
	case "not_loaded":
		return "no graph loaded yet"
	default:
		return "internal server error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, errorPayload{Error: errorBody{Kind: kind, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
