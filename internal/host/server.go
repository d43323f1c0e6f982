package host

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/aleister1102/firefoxversions/internal/agent"
	"github.com/aleister1102/firefoxversions/internal/common"
	"github.com/aleister1102/firefoxversions/internal/datastore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	defaultEventsLimit = 20
	maxEventsLimit     = 100
)

// WorkingFunc reports whether the agent is healthy.
type WorkingFunc func(ctx context.Context) bool

// EventReader exposes the stored events of one agent.
type EventReader interface {
	LatestEvent(ctx context.Context) (datastore.Event, bool, error)
	Events(ctx context.Context, limit int) ([]datastore.Event, error)
}

// ArchiveReader exposes the archived events of an agent.
type ArchiveReader interface {
	Load(ctx context.Context, agent string) ([]datastore.ArchivedEvent, error)
}

// StatusSource exposes the runner state.
type StatusSource interface {
	Status() RunStatus
}

// Server is the read-only HTTP status API of a host.
type Server struct {
	agentName       string
	working         WorkingFunc
	events          EventReader
	status          StatusSource
	archive         ArchiveReader
	shutdownTimeout time.Duration
	router          chi.Router
	logger          zerolog.Logger
}

// NewServer builds the router. status may be nil.
func NewServer(agentName string, working WorkingFunc, events EventReader, status StatusSource, shutdownTimeout time.Duration, logger zerolog.Logger) *Server {
	s := &Server{
		agentName:       agentName,
		working:         working,
		events:          events,
		status:          status,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With().Str("component", "StatusServer").Logger(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/schema", s.schema)
		r.Get("/status", s.runStatus)
		r.Get("/events", s.listEvents)
		r.Get("/events/latest", s.latestEvent)
		r.Get("/archive", s.listArchive)
	})
	s.router = r
	return s
}

// WithArchive serves archived events from archive.
func (s *Server) WithArchive(archive ArchiveReader) *Server {
	s.archive = archive
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return common.WrapError(err, "failed to listen on "+addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Status server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return common.WrapError(err, "status server failed")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return common.WrapError(err, "status server shutdown failed")
	}
	s.logger.Info().Msg("Status server stopped")
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	working := s.working(r.Context())
	status := http.StatusOK
	if !working {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"agent":   s.agentName,
		"working": working,
	})
}

func (s *Server) schema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":              agent.Name,
		"description":       agent.Description,
		"event_description": agent.EventDescription,
		"default_schedule":  agent.DefaultSchedule,
		"can_dry_run":       agent.CanDryRun,
		"options":           agent.Schema(),
	})
}

func (s *Server) runStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status == nil {
		writeError(w, http.StatusNotFound, "runner status is not available")
		return
	}
	writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := defaultEventsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxEventsLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxEventsLimit))
			return
		}
		limit = n
	}

	events, err := s.events.Events(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list events")
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if events == nil {
		events = []datastore.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) latestEvent(w http.ResponseWriter, r *http.Request) {
	event, ok, err := s.events.LatestEvent(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read latest event")
		writeError(w, http.StatusInternalServerError, "failed to read latest event")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no events")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) listArchive(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeError(w, http.StatusNotFound, "event archive is not enabled")
		return
	}

	events, err := s.archive.Load(r.Context(), s.agentName)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load archived events")
		writeError(w, http.StatusInternalServerError, "failed to load archived events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"events": events,
		"count":  len(events),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
