// Package http exposes a compiled workflow engine over a small JSON API.
// Hosts mount the handler; the engine itself stays transport-agnostic.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/plait/pkg/domain"
	"github.com/aretw0/plait/pkg/ports"
	"github.com/aretw0/plait/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the workflow capability the server exposes.
type Engine interface {
	Invoke(ctx context.Context, input, sessionID string) (*domain.WorkflowState, error)
	Output(state *domain.WorkflowState) string
}

// Server wires the engine and optional session store into HTTP handlers.
type Server struct {
	engine   Engine
	store    ports.StateStore
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *metrics
	version  string
}

// Option configures the server.
type Option func(*Server)

// WithStore enables the session retrieval endpoints.
func WithStore(store ports.StateStore) Option {
	return func(s *Server) { s.store = store }
}

// WithSessionManager serializes concurrent runs of one session id and
// enables the session retrieval endpoints through the manager's store.
func WithSessionManager(m *session.Manager) Option {
	return func(s *Server) {
		s.sessions = m
		s.store = m.Store()
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithVersion sets the version reported by GET /info.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewHandler builds the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine:  engine,
		logger:  slog.Default(),
		metrics: newMetrics(),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Post("/run", s.handleRun)
	r.Get("/healthz", s.handleHealth)
	r.Get("/info", s.handleInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{id}", s.handleGetSession)
	r.Delete("/sessions/{id}", s.handleDeleteSession)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RunRequest is the body of POST /run.
type RunRequest struct {
	Input     string `json:"input"`
	SessionID string `json:"session_id,omitempty"`
}

// RunResponse is the body returned by POST /run.
type RunResponse struct {
	SessionID string                `json:"session_id"`
	Output    string                `json:"output"`
	State     *domain.WorkflowState `json:"state,omitempty"`
	Error     string                `json:"error,omitempty"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("run: invalid request body", "err", err)
		return
	}

	start := time.Now()
	state, err := s.invoke(r.Context(), body.Input, body.SessionID)
	s.metrics.observeRun(time.Since(start), err)

	if err != nil {
		if errors.Is(err, domain.ErrUserExit) {
			writeJSON(w, http.StatusOK, RunResponse{
				SessionID: sessionOf(state, body.SessionID),
				Output:    s.engine.Output(state),
				Error:     err.Error(),
			})
			return
		}
		http.Error(w, fmt.Sprintf("Workflow error: %v", err), http.StatusInternalServerError)
		s.logger.Error("workflow failed", "err", err)
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{
		SessionID: sessionOf(state, body.SessionID),
		Output:    s.engine.Output(state),
		State:     state,
	})
}

// invoke runs the engine, holding the session lock when both a manager
// and an explicit session id are present. Runs without a session id get
// a generated one and cannot collide.
func (s *Server) invoke(ctx context.Context, input, sessionID string) (*domain.WorkflowState, error) {
	if s.sessions == nil || sessionID == "" {
		return s.engine.Invoke(ctx, input, sessionID)
	}

	var state *domain.WorkflowState
	err := s.sessions.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var invokeErr error
		state, invokeErr = s.engine.Invoke(ctx, input, sessionID)
		return invokeErr
	})
	return state, err
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Session store not configured", http.StatusNotImplemented)
		return
	}
	id := chi.URLParam(r, "id")
	state, err := s.store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("session load failed", "session", id, "err", err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Session store not configured", http.StatusNotImplemented)
		return
	}
	sessions, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("session list failed", "err", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		http.Error(w, "Session store not configured", http.StatusNotImplemented)
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("session delete failed", "session", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "plait-http",
		"version": s.version,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func sessionOf(state *domain.WorkflowState, fallback string) string {
	if state != nil && state.SessionID != "" {
		return state.SessionID
	}
	return fallback
}
