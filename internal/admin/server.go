// SPDX-License-Identifier: MIT

// Package admin exposes the operational HTTP surface: event inspection,
// forced termination, health and Prometheus metrics.
package admin

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hibouclub/eventengine/internal/event/model"
	"github.com/hibouclub/eventengine/internal/event/resolver"
	"github.com/hibouclub/eventengine/internal/event/store"
	xglog "github.com/hibouclub/eventengine/internal/log"
)

// Stopper force-terminates a running event. Satisfied by
// *lifecycle.Controller.
type Stopper interface {
	End(ctx context.Context, id string, reason model.EndReason) error
}

// Server is the admin API. Mutating routes require the bearer token; an
// empty token disables them entirely.
type Server struct {
	Store store.Store
	Ctrl  Stopper
	Token string

	// Impostor drafts a user into a hidden-objective game. Optional;
	// the route answers 503 when unset.
	Impostor func(ctx context.Context, userID, username string) error

	// Box serves manual mystery box drops. Optional.
	Box *resolver.MysteryBox

	// Signal routes activity observations into the mission tracker.
	// Optional; the route answers 503 when unset.
	Signal func(ctx context.Context, userID string, sig model.Signal) error

	// Res serves the gateway contribution routes (answers, damage,
	// counts). Required when gameRoutes are mounted.
	Res *resolver.Resolver

	logger zerolog.Logger
}

// New wires an admin server.
func New(st store.Store, ctrl Stopper, token string) *Server {
	return &Server{
		Store:  st,
		Ctrl:   ctrl,
		Token:  token,
		logger: xglog.WithComponent("admin"),
	}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(RateLimit(RateLimitConfig{RequestLimit: 120, WindowSize: time.Minute}))
	r.Use(OTelHTTP("eventd-admin"))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", s.handleListEvents)
		r.Get("/events/{id}", s.handleGetEvent)
		r.Get("/history", s.handleHistory)
		r.Get("/preferences/{userID}", s.handleGetPreferences)
		r.Put("/preferences/{userID}", s.handleSetPreferences)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.Delete("/events/{id}", s.handleForceStop)
			r.Post("/events/impostor", s.handleStartImpostor)
			r.Post("/mysterybox", s.handleMysteryBox)
			r.Post("/signals", s.handleSignal)
			if s.Res != nil {
				s.gameRoutes(r)
			}
		})
	})
	return r
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token == "" {
			writeError(w, http.StatusForbidden, "admin_disabled", "no admin token configured")
			return
		}
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix ||
			subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(s.Token)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Store.ListEvents(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list events failed")
		writeError(w, http.StatusInternalServerError, "store_error", "could not list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, err := s.Store.GetEvent(r.Context(), id)
	if err != nil {
		s.logger.Error().Err(err).Str("event_id", id).Msg("get event failed")
		writeError(w, http.StatusInternalServerError, "store_error", "could not load event")
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such event")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := parsePositive(q); err == nil {
			limit = n
		}
	}
	entries, err := s.Store.ListHistory(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list history failed")
		writeError(w, http.StatusInternalServerError, "store_error", "could not list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries, "count": len(entries)})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	prefs, err := s.Store.Preferences(r.Context(), userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("get preferences failed")
		writeError(w, http.StatusInternalServerError, "store_error", "could not load preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var prefs model.UserPreferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid preferences body")
		return
	}
	if err := s.Store.SetPreferences(r.Context(), userID, prefs); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("set preferences failed")
		writeError(w, http.StatusInternalServerError, "store_error", "could not save preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleForceStop(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, err := s.Store.GetEvent(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "could not load event")
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, "not_found", "no such event")
		return
	}
	if err := s.Ctrl.End(r.Context(), id, model.ReasonForced); err != nil {
		s.logger.Error().Err(err).Str("event_id", id).Msg("force stop failed")
		writeError(w, http.StatusInternalServerError, "stop_failed", "event termination failed")
		return
	}
	s.logger.Info().Str("event_id", id).Str("kind", string(ev.Kind)).Msg("event force-stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped", "id": id})
}

func (s *Server) handleStartImpostor(w http.ResponseWriter, r *http.Request) {
	if s.Impostor == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "impostor launches are not wired")
		return
	}
	var req struct {
		UserID   string `json:"userId"`
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "userId and username are required")
		return
	}
	if err := s.Impostor(r.Context(), req.UserID, req.Username); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("impostor launch failed")
		writeError(w, http.StatusInternalServerError, "start_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started", "userId": req.UserID})
}

func (s *Server) handleMysteryBox(w http.ResponseWriter, r *http.Request) {
	if s.Box == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "mystery box is not wired")
		return
	}
	var req struct {
		ChannelID  string               `json:"channelId"`
		Candidates []resolver.Candidate `json:"candidates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Candidates) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "channelId and candidates are required")
		return
	}
	res, err := s.Box.Drop(r.Context(), req.ChannelID, req.Candidates)
	if err != nil {
		if errors.Is(err, resolver.ErrNoCandidate) {
			writeError(w, http.StatusConflict, "no_candidate", "no eligible candidate")
			return
		}
		s.logger.Error().Err(err).Msg("mystery box drop failed")
		writeError(w, http.StatusInternalServerError, "drop_failed", "mystery box drop failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	if s.Signal == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "signal ingestion is not wired")
		return
	}
	var req struct {
		UserID string `json:"userId"`
		Kind   string `json:"kind"`
		Value  string `json:"value"`
		Amount int    `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.Kind == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "userId and kind are required")
		return
	}
	sig := model.Signal{Kind: model.SignalKind(req.Kind), Value: req.Value, Amount: req.Amount}
	if _, ok := model.MissionForSignal[sig.Kind]; !ok {
		writeError(w, http.StatusBadRequest, "bad_request", "unknown signal kind")
		return
	}
	if err := s.Signal(r.Context(), req.UserID, sig); err != nil {
		s.logger.Error().Err(err).Str("user_id", req.UserID).Msg("signal ingestion failed")
		writeError(w, http.StatusInternalServerError, "signal_failed", "signal ingestion failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}
