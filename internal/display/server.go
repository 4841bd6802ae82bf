// Package display serves a small read-only HTTP API over the session, for a
// companion screen next to the voice agent.
package display

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"homebox-voice-mcp/internal/config"
	"homebox-voice-mcp/internal/events"
	"homebox-voice-mcp/internal/facts"
	"homebox-voice-mcp/internal/session"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FactSource answers derived questions about the session's events.
type FactSource interface {
	CreatedIDs(ctx context.Context) ([]uuid.UUID, error)
	Evaluate(ctx context.Context, predicate string) ([]facts.Fact, error)
}

// Server is the display API. It never mutates the session.
type Server struct {
	addr    string
	session *session.Session
	facts   FactSource
	logger  *zap.Logger
	router  *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithFacts enables GET /created and GET /facts/{predicate}.
func WithFacts(f FactSource) Option {
	return func(s *Server) { s.facts = f }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer builds the router; nothing listens until Start.
func NewServer(cfg config.DisplayConfig, sess *session.Session, opts ...Option) *Server {
	s := &Server{
		addr:    cfg.Addr,
		session: sess,
		logger:  zap.NewNop(),
		router:  mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/events", s.handleEvents).Methods(http.MethodGet)
	s.router.HandleFunc("/events/{seq:[0-9]+}", s.handleEvent).Methods(http.MethodGet)
	s.router.HandleFunc("/current-location", s.handleCurrentLocation).Methods(http.MethodGet)
	if s.facts != nil {
		s.router.HandleFunc("/created", s.handleCreated).Methods(http.MethodGet)
		s.router.HandleFunc("/facts/{predicate:[a-z_][a-z0-9_]*}", s.handleFacts).Methods(http.MethodGet)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("display API listening", zap.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		<-errCh
		s.logger.Info("display API stopped")
		return err
	case err := <-errCh:
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session_id": s.session.ID().String()})
}

// handleEvents lists entries, optionally filtered by ?kind= and truncated to
// the newest ?limit= entries.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Events().Entries()

	if kind := r.URL.Query().Get("kind"); kind != "" {
		filtered := make([]events.Entry, 0, len(entries))
		for _, e := range entries {
			if string(e.Event.Kind()) == kind {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}

	if entries == nil {
		entries = []events.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(mux.Vars(r)["seq"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sequence number")
		return
	}
	for _, e := range s.session.Events().Entries() {
		if e.Seq == seq {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "no such event")
}

func (s *Server) handleCurrentLocation(w http.ResponseWriter, _ *http.Request) {
	current := s.session.CurrentLocation()
	if current == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": current.String()})
}

func (s *Server) handleCreated(w http.ResponseWriter, r *http.Request) {
	ids, err := s.facts.CreatedIDs(r.Context())
	if err != nil {
		s.logger.Warn("created query failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(ids), "ids": ids})
}

// handleFacts evaluates one declared predicate, base or derived.
func (s *Server) handleFacts(w http.ResponseWriter, r *http.Request) {
	predicate := mux.Vars(r)["predicate"]
	got, err := s.facts.Evaluate(r.Context(), predicate)
	switch {
	case errors.Is(err, facts.ErrUnknownPredicate):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.logger.Warn("fact evaluation failed", zap.String("predicate", predicate), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"predicate": predicate,
		"count":     len(got),
		"facts":     got,
	})
}
