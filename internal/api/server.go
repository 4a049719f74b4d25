// Package api exposes the planning engine over HTTP: a chi router with JWT
// bearer auth, JSON in and out.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

// Planner is the engine surface the API depends on.
type Planner interface {
	Plan(ctx context.Context, userID string, req trip.Request) (*planner.Result, error)
	SessionStatus(ctx context.Context, sessionID string) (planner.Status, bool)
	CancelSession(ctx context.Context, sessionID string) bool
}

// IntentParser turns a free-text message into a structured request.
type IntentParser interface {
	Extract(ctx context.Context, userQuery string) (trip.Request, shared.StageMeta, error)
}

// MetricsRecorder receives per-stage execution metadata. Optional.
type MetricsRecorder interface {
	RecordMeta(ctx context.Context, meta shared.StageMeta) error
}

// TripReader serves persisted trips. Optional; without it the trip
// endpoints return 404.
type TripReader interface {
	Get(ctx context.Context, id string) (*trip.StoredTrip, error)
	ListRecentByUserID(ctx context.Context, userID string, limit int) ([]trip.StoredTrip, error)
}

// SessionLister serves persisted session snapshots. Optional; without it
// the sessions listing returns an empty list.
type SessionLister interface {
	ListSessionsByUser(ctx context.Context, userID string, limit int) ([]*planner.Session, error)
}

// Server wires the handlers into a chi router.
type Server struct {
	Router *chi.Mux

	planner  Planner
	intent   IntentParser
	metrics  MetricsRecorder
	trips    TripReader
	sessions SessionLister
}

func NewServer(p Planner, intent IntentParser, auth *Authenticator, metrics MetricsRecorder, trips TripReader, sessions SessionLister) *Server {
	s := &Server{
		Router:   chi.NewRouter(),
		planner:  p,
		intent:   intent,
		metrics:  metrics,
		trips:    trips,
		sessions: sessions,
	}

	s.Router.Use(middleware.RequestID)
	s.Router.Use(requestLogger)
	s.Router.Use(middleware.Recoverer)

	s.Router.Get("/health", s.handleHealth)
	s.Router.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware)
		}
		r.Post("/plan", s.handlePlan)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/{sessionID}", s.handleSessionStatus)
		r.Delete("/sessions/{sessionID}", s.handleCancelSession)
		r.Get("/trips", s.handleListTrips)
		r.Get("/trips/{tripID}", s.handleGetTrip)
	})
	return s
}

// Start blocks serving HTTP until the listener fails or ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("api server listening", "port", port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// planRequest is the POST /api/v1/plan body: either a free-text message for
// intent extraction, or a structured request.
type planRequest struct {
	Message string        `json:"message,omitempty"`
	Request *trip.Request `json:"request,omitempty"`
}

type planResponse struct {
	SessionID         string              `json:"session_id"`
	Message           string              `json:"message"`
	Warning           string              `json:"warning,omitempty"`
	OutstandingIssues []trip.Issue        `json:"outstanding_issues,omitempty"`
	TripDetails       *trip.TravelContext `json:"trip_details"`
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var body planRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, ok := s.resolveRequest(w, r, body)
	if !ok {
		return
	}

	result, err := s.planner.Plan(r.Context(), UserID(r.Context()), req)
	if err != nil {
		slog.Error("planning failed", "user_id", UserID(r.Context()), "error", err)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		SessionID:         result.SessionID,
		Message:           result.FormattedOutput,
		Warning:           result.Warning,
		OutstandingIssues: result.OutstandingIssues,
		TripDetails:       result.Context,
	})
}

// resolveRequest picks the structured request or runs intent extraction on
// the free-text message. Writes the error response itself on failure.
func (s *Server) resolveRequest(w http.ResponseWriter, r *http.Request, body planRequest) (trip.Request, bool) {
	if body.Request != nil {
		return *body.Request, true
	}
	if body.Message == "" {
		writeError(w, http.StatusBadRequest, "either message or request is required")
		return trip.Request{}, false
	}
	if s.intent == nil {
		writeError(w, http.StatusBadRequest, "free-text planning is not enabled; send a structured request")
		return trip.Request{}, false
	}

	req, meta, err := s.intent.Extract(r.Context(), body.Message)
	s.recordMeta(r.Context(), meta)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("could not understand request: %v", err))
		return trip.Request{}, false
	}
	return req, true
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	status, ok := s.planner.SessionStatus(r.Context(), sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	statuses := []planner.Status{}
	if s.sessions != nil {
		sessions, err := s.sessions.ListSessionsByUser(r.Context(), UserID(r.Context()), 20)
		if err != nil {
			slog.Error("failed to list sessions", "user_id", UserID(r.Context()), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list sessions")
			return
		}
		for _, session := range sessions {
			statuses = append(statuses, session.Status())
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": statuses})
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if !s.planner.CancelSession(r.Context(), sessionID) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tripSummary is the list-view projection of a stored trip.
type tripSummary struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	Days        int       `json:"days"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	summaries := []tripSummary{}
	if s.trips != nil {
		trips, err := s.trips.ListRecentByUserID(r.Context(), UserID(r.Context()), 20)
		if err != nil {
			slog.Error("failed to list trips", "user_id", UserID(r.Context()), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list trips")
			return
		}
		for _, stored := range trips {
			summary := tripSummary{ID: stored.ID, CreatedAt: stored.CreatedAt}
			if stored.Context != nil {
				summary.Destination = stored.Context.Request.Destination
				summary.Days = stored.Context.Request.DurationDays
			}
			summaries = append(summaries, summary)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"trips": summaries})
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	if s.trips == nil {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	stored, err := s.trips.Get(r.Context(), tripID)
	if err != nil {
		slog.Error("failed to load trip", "trip_id", tripID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load trip")
		return
	}
	// Trips are private: a missing trip and another user's trip look the same.
	if stored == nil || stored.UserID != UserID(r.Context()) {
		writeError(w, http.StatusNotFound, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) recordMeta(ctx context.Context, meta shared.StageMeta) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordMeta(ctx, meta); err != nil {
		slog.Warn("failed to record stage metric", "stage", meta.Stage, "error", err)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
