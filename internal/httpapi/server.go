// Package httpapi exposes the local control surface of the interview client:
// start/end the session, inspect state, review logs and fetch results.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/prerak-b/vivavoce/internal/journal"
	"github.com/prerak-b/vivavoce/internal/observability"
	"github.com/prerak-b/vivavoce/internal/results"
	"github.com/prerak-b/vivavoce/internal/session"
)

// OrchestratorFactory builds a fresh orchestrator per session. Orchestrators
// are single-use; every start gets a new one.
type OrchestratorFactory func() *session.Orchestrator

type Server struct {
	factory OrchestratorFactory
	results *results.Client
	store   journal.Store
	log     *zap.Logger

	mu     sync.Mutex
	active *activeSession
}

type activeSession struct {
	orc    *session.Orchestrator
	cancel context.CancelFunc
}

func New(factory OrchestratorFactory, resultsClient *results.Client, store journal.Store, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		factory: factory,
		results: resultsClient,
		store:   store,
		log:     log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/interview/presets", s.handlePresets)
	r.Post("/v1/interview/start", s.handleStart)
	r.Post("/v1/interview/end", s.handleEnd)
	r.Get("/v1/interview/state", s.handleState)
	r.Get("/v1/interview/log/{id}", s.handleSessionLog)
	r.Get("/v1/interview/result/{id}", s.handleResult)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	upstream := "ok"
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.results.Health(ctx); err != nil {
		upstream = "unreachable"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"upstream": upstream,
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, session.Presets())
}

type startRequest struct {
	Preset string `json:"preset"`
	session.Config
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cfg := req.Config
	if strings.TrimSpace(req.Preset) != "" {
		preset, ok := presetByName(req.Preset)
		if !ok {
			respondError(w, http.StatusBadRequest, "unknown_preset", "no preset named "+req.Preset)
			return
		}
		cfg = preset.Config
	}
	if err := cfg.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_setup", err.Error())
		return
	}

	s.mu.Lock()
	if s.activeLocked() != nil {
		s.mu.Unlock()
		respondError(w, http.StatusConflict, "session_active", session.ErrSessionActive.Error())
		return
	}
	orc := s.factory()
	ctx, cancel := context.WithCancel(context.Background())
	s.active = &activeSession{orc: orc, cancel: cancel}
	s.mu.Unlock()

	go func() {
		if err := orc.Run(ctx, cfg); err != nil {
			s.log.Warn("session ended with error", zap.Error(err))
		}
		cancel()
	}()

	respondJSON(w, http.StatusAccepted, orc.Snapshot())
}

func (s *Server) handleEnd(w http.ResponseWriter, _ *http.Request) {
	active := s.currentSession()
	if active == nil {
		respondError(w, http.StatusNotFound, "no_session", "no active session")
		return
	}
	active.orc.End()

	select {
	case <-active.orc.Done():
	case <-time.After(10 * time.Second):
		s.log.Warn("session did not wind down in time; canceling")
		active.cancel()
	}
	respondJSON(w, http.StatusOK, active.orc.Snapshot())
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()
	if active == nil {
		respondJSON(w, http.StatusOK, session.State{Phase: session.PhaseIdle})
		return
	}
	respondJSON(w, http.StatusOK, active.orc.Snapshot())
}

func (s *Server) handleSessionLog(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	log, err := s.store.SessionLog(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "journal_error", err.Error())
		return
	}
	if log == nil {
		log = []journal.Record{}
	}
	respondJSON(w, http.StatusOK, log)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}
	summary, err := s.results.Fetch(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusBadGateway, "results_unavailable", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// currentSession returns the running session, clearing a finished one.
func (s *Server) currentSession() *activeSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Server) activeLocked() *activeSession {
	if s.active == nil {
		return nil
	}
	select {
	case <-s.active.orc.Done():
		s.active.cancel()
		s.active = nil
		return nil
	default:
		return s.active
	}
}

// Shutdown ends any running session and waits for it to wind down.
func (s *Server) Shutdown(ctx context.Context) {
	active := s.currentSession()
	if active == nil {
		return
	}
	active.orc.End()
	select {
	case <-active.orc.Done():
	case <-ctx.Done():
		active.cancel()
	}
}

func presetByName(name string) (session.Preset, bool) {
	for _, p := range session.Presets() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return session.Preset{}, false
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
