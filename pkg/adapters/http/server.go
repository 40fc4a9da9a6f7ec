// Package http exposes a pipeline engine over a small JSON API: submit a
// run, fetch a persisted result, list runs, plus health and metrics
// endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/gleaner/internal/logging"
	"github.com/aretw0/gleaner/pkg/domain"
)

// Engine is the surface the server needs from the pipeline engine.
// *gleaner.Engine satisfies it.
type Engine interface {
	Submit(ctx context.Context, initial domain.State) (string, *domain.Result, error)
	Result(ctx context.Context, runID string) (*domain.Result, error)
	Runs(ctx context.Context) ([]string, error)
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine   Engine
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// HandlerOption configures the HTTP handler.
type HandlerOption func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts /metrics backed by the given Prometheus gatherer.
func WithMetrics(g prometheus.Gatherer) HandlerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...HandlerOption) http.Handler {
	server := &Server{engine: engine}
	for _, opt := range opts {
		opt(server)
	}
	if server.logger == nil {
		server.logger = logging.NewNop()
	}

	r := chi.NewRouter()
	r.Get("/healthz", server.Health)
	r.Post("/runs", server.SubmitRun)
	r.Get("/runs", server.ListRuns)
	r.Get("/runs/{id}", server.GetRun)
	if server.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(server.gatherer, promhttp.HandlerOpts{}))
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SubmitRequest is the POST /runs body.
type SubmitRequest struct {
	Initial domain.State `json:"initial"`
}

// RunResponse is the wire form of a run: its ID plus the result.
type RunResponse struct {
	RunID      string           `json:"run_id"`
	FinalState domain.State     `json:"final_state"`
	Trace      domain.Trace     `json:"trace"`
	Err        *domain.RunError `json:"error,omitempty"`
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// SubmitRun handles POST /runs. Step failures are part of the run result
// and still answer 201; only transport and persistence problems map to
// HTTP errors.
func (s *Server) SubmitRun(w http.ResponseWriter, r *http.Request) {
	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("submit: invalid request body", "error", err)
		return
	}

	runID, result, err := s.engine.Submit(r.Context(), body.Initial)
	if err != nil {
		http.Error(w, fmt.Sprintf("Submit error: %v", err), http.StatusInternalServerError)
		s.logger.Error("submit failed", "error", err, "run_id", runID)
		return
	}

	s.logger.Info("run submitted", "run_id", runID, "failed", result.Failed())
	writeJSON(w, http.StatusCreated, RunResponse{
		RunID:      runID,
		FinalState: result.FinalState,
		Trace:      result.Trace,
		Err:        result.Err,
	}, s.logger)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	result, err := s.engine.Result(r.Context(), runID)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			http.Error(w, "Run not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("load failed", "error", err, "run_id", runID)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		RunID:      runID,
		FinalState: result.FinalState,
		Trace:      result.Trace,
		Err:        result.Err,
	}, s.logger)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.engine.Runs(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("list failed", "error", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"runs": ids}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "error", err)
	}
}
