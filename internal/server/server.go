package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"gopkg.in/yaml.v3"

	"greensim/internal/advisor"
	"greensim/internal/config"
	"greensim/internal/orchestrator"
	"greensim/internal/photosynthesis"
	"greensim/internal/telemetry"
	"greensim/internal/types"
)

// DefaultSession is created at startup and backs the legacy /api routes.
const DefaultSession = "default"

const maxBodyBytes = 1 << 20

type Server struct {
	Router   *http.ServeMux
	hub      *Hub
	upgrader websocket.Upgrader
	sessions *orchestrator.Registry
	advisor  *advisor.Advisor
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// NewServer wires the hub, the session registry and the routes. Close
// stops every session.
func NewServer(ctx context.Context, cfg *config.Config, adv *advisor.Advisor, logger *slog.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)

	hub := NewHub(logger)
	go hub.run(ctx)

	s := &Server{
		hub:      hub,
		upgrader: newUpgrader(cfg.Server.AllowedOrigin),
		advisor:  adv,
		logger:   logger,
		cancel:   cancel,
		sessions: orchestrator.NewRegistry(ctx, orchestrator.RegistryOptions{
			Interval:    cfg.Simulation.TickInterval,
			MaxSessions: cfg.Simulation.MaxSessions,
			Initial:     cfg.Simulation.Initial,
			Publish:     hub.publish,
			Logger:      logger,
		}),
	}
	if _, err := s.sessions.Create(DefaultSession, nil); err != nil {
		cancel()
		return nil, fmt.Errorf("creating default session: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /metrics", s.handleMetrics)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/presets", s.handlePresets)

	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", s.handleState)
	mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/env", s.handleUpdateEnv)
	mux.HandleFunc("POST /api/sessions/{id}/preset/{name}", s.handlePreset)
	mux.HandleFunc("POST /api/sessions/{id}/toggle", s.handleToggle)
	mux.HandleFunc("POST /api/sessions/{id}/reset", s.handleReset)
	mux.HandleFunc("GET /api/sessions/{id}/stats", s.handleStats)
	mux.HandleFunc("GET /api/sessions/{id}/export", s.handleExport)
	mux.HandleFunc("POST /api/sessions/{id}/advice", s.handleAdvice)

	// Single-session routes kept for older clients; they act on DefaultSession.
	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("POST /api/update-env", s.handleUpdateEnv)
	mux.HandleFunc("POST /api/reset", s.handleReset)

	// CORS for local dev: wrap mux
	s.Router = http.NewServeMux()
	s.Router.Handle("/", withCORS(cfg.Server.AllowedOrigin, mux))
	return s, nil
}

// Close stops all sessions and the hub.
func (s *Server) Close() {
	s.sessions.Close()
	s.cancel()
}

func withCORS(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.MetricsSnapshot{
		Sessions:   s.sessions.Len(),
		TicksTotal: s.sessions.TicksTotal(),
		WSClients:  s.hub.clientCount(),
	})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, photosynthesis.Presets())
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session")
	if id == "" {
		id = DefaultSession
	}
	eng, err := s.sessions.Get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := eng.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	first, err := json.Marshal(types.WSEvent{Type: "snapshot", Payload: snap, Timestamp: nowISO()})
	if err != nil {
		s.writeError(w, err)
		return
	}
	serveWS(s.hub, &s.upgrader, id, first, w, r)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req types.CreateSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	in := req.Inputs
	if req.Preset != "" {
		p, err := photosynthesis.LookupPreset(req.Preset)
		if err != nil {
			s.writeError(w, err)
			return
		}
		in = &p
	}

	eng, err := s.sessions.Create("", in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := eng.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "session", eng.ID())
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.SessionList{Sessions: s.sessions.IDs()})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Delete(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session deleted", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, eng *orchestrator.Engine) (types.Snapshot, error) {
		return eng.Snapshot(ctx)
	})
}

func (s *Server) handleUpdateEnv(w http.ResponseWriter, r *http.Request) {
	var req types.EnvUpdateRequest
	if err := decodeBody(w, r, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	s.withSession(w, r, func(ctx context.Context, eng *orchestrator.Engine) (types.Snapshot, error) {
		return eng.UpdateInputs(ctx, req)
	})
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	s.withSession(w, r, func(ctx context.Context, eng *orchestrator.Engine) (types.Snapshot, error) {
		return eng.ApplyPreset(ctx, name)
	})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, eng *orchestrator.Engine) (types.Snapshot, error) {
		return eng.Toggle(ctx)
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(ctx context.Context, eng *orchestrator.Engine) (types.Snapshot, error) {
		return eng.Reset(ctx)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, telemetry.Summarize(snap.State.History))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "yaml" {
		http.Error(w, "format must be csv or yaml", http.StatusBadRequest)
		return
	}

	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	if format == "yaml" {
		out, err := yaml.Marshal(snap)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.Header().Set("Content-Disposition", "attachment; filename=greensim-"+snap.SessionID+".yaml")
		_, _ = w.Write(out)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=greensim-"+snap.SessionID+"-history.csv")
	if err := telemetry.WriteHistoryCSV(w, snap.State.History); err != nil {
		s.logger.Error("export failed", "session", snap.SessionID, "error", err)
	}
}

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.advisor.Advise(r.Context(), snap.Inputs, snap.Outputs, snap.State))
}

// sessionFor resolves the {id} path value, falling back to DefaultSession
// on routes without one.
func (s *Server) sessionFor(r *http.Request) (*orchestrator.Engine, error) {
	id := r.PathValue("id")
	if id == "" {
		id = DefaultSession
	}
	return s.sessions.Get(id)
}

func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(context.Context, *orchestrator.Engine) (types.Snapshot, error)) {
	eng, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := fn(r.Context(), eng)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (types.Snapshot, bool) {
	eng, err := s.sessionFor(r)
	if err != nil {
		s.writeError(w, err)
		return types.Snapshot{}, false
	}
	snap, err := eng.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return types.Snapshot{}, false
	}
	return snap, true
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, orchestrator.ErrNotFound), errors.Is(err, photosynthesis.ErrUnknownPreset):
		status = http.StatusNotFound
	case errors.Is(err, orchestrator.ErrTooManySessions), errors.Is(err, orchestrator.ErrExists):
		status = http.StatusConflict
	case errors.Is(err, orchestrator.ErrStopped):
		status = http.StatusGone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

// decodeBody accepts an empty body as the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Utility for timestamps in events
func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
