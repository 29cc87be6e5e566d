// SPDX-License-Identifier: MIT

package admin

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	xglog "github.com/hibouclub/eventengine/internal/log"
)

// gameRequest is the shared body of the contribution routes.
type gameRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Answer   string `json:"answer,omitempty"`
	Message  string `json:"message,omitempty"`
	Count    int    `json:"count,omitempty"`
}

func decodeGame(w http.ResponseWriter, r *http.Request) (gameRequest, bool) {
	var req gameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "userId is required")
		return req, false
	}
	return req, true
}

// gameCtx carries correlation ids for downstream log enrichment.
func gameCtx(r *http.Request, req gameRequest) context.Context {
	ctx := xglog.ContextWithUserID(r.Context(), req.UserID)
	return xglog.ContextWithEventID(ctx, chi.URLParam(r, "id"))
}

// gameRoutes exposes the resolver operations to the bot gateway. They
// are mounted under the same bearer token as the admin routes: the
// gateway is the only caller.
func (s *Server) gameRoutes(r chi.Router) {
	r.Post("/events/{id}/answers", s.handleAnswer)
	r.Post("/events/{id}/messages", s.handleMessage)
	r.Post("/events/{id}/count", s.handleCount)
	r.Post("/events/{id}/damage", s.handleDamage)
	r.Post("/events/{id}/join", s.handleJoin)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGame(w, r)
	if !ok {
		return
	}
	out, err := s.Res.Submit(gameCtx(r, req), chi.URLParam(r, "id"), req.UserID, req.Username, req.Answer)
	if err != nil {
		s.logger.Error().Err(err).Msg("answer submission failed")
		writeError(w, http.StatusInternalServerError, "submit_failed", "answer submission failed")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGame(w, r)
	if !ok {
		return
	}
	won, err := s.Res.ScanMessage(gameCtx(r, req), chi.URLParam(r, "id"), req.UserID, req.Username, req.Message)
	if err != nil {
		s.logger.Error().Err(err).Msg("message scan failed")
		writeError(w, http.StatusInternalServerError, "scan_failed", "message scan failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"won": won})
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGame(w, r)
	if !ok {
		return
	}
	won, err := s.Res.Increment(gameCtx(r, req), chi.URLParam(r, "id"), req.UserID, req.Username, req.Count)
	if err != nil {
		s.logger.Error().Err(err).Msg("counter increment failed")
		writeError(w, http.StatusInternalServerError, "count_failed", "counter increment failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"won": won})
}

func (s *Server) handleDamage(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGame(w, r)
	if !ok {
		return
	}
	defeated, err := s.Res.Damage(gameCtx(r, req), chi.URLParam(r, "id"), req.UserID, req.Username)
	if err != nil {
		s.logger.Error().Err(err).Msg("boss damage failed")
		writeError(w, http.StatusInternalServerError, "damage_failed", "boss damage failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"defeated": defeated})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeGame(w, r)
	if !ok {
		return
	}
	if err := s.Res.Join(gameCtx(r, req), chi.URLParam(r, "id"), req.UserID, req.Username); err != nil {
		s.logger.Error().Err(err).Msg("join failed")
		writeError(w, http.StatusInternalServerError, "join_failed", "join failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "joined"})
}
