// Package handlers provides HTTP handlers for engagement statistics.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/domain"
	"github.com/eacar/amplify/internal/modules/activity"
)

const defaultRecentLimit = 50

// Handler provides HTTP handlers for activity endpoints.
type Handler struct {
	repo *activity.Repository
	log  zerolog.Logger
}

// NewHandler creates a new activity handler.
func NewHandler(repo *activity.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		repo: repo,
		log:  log.With().Str("handler", "activity").Logger(),
	}
}

// StatsResponse combines aggregate totals with the recent activity feed.
type StatsResponse struct {
	Totals activity.Totals   `json:"totals"`
	Recent []domain.Activity `json:"recent"`
}

// HandleStats handles GET /api/bot/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	totals, err := h.repo.Stats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute activity totals")
		http.Error(w, "Failed to compute stats", http.StatusInternalServerError)
		return
	}

	recent, err := h.repo.Recent(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load recent activities")
		http.Error(w, "Failed to load activities", http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []domain.Activity{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsResponse{Totals: totals, Recent: recent})
}

// HandleReset handles DELETE /api/bot/stats
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Reset(); err != nil {
		h.log.Error().Err(err).Msg("Failed to reset activities")
		http.Error(w, "Failed to reset stats", http.StatusInternalServerError)
		return
	}

	h.log.Info().Msg("Activity history reset")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
