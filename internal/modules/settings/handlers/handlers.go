// Package handlers provides HTTP handlers for application settings.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/modules/settings"
)

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	service *settings.Service
	log     zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(service *settings.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "settings").Logger(),
	}
}

// HandleGetAll handles GET /api/settings
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get all settings")
		http.Error(w, "Failed to get settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(all)
}

// HandleUpdate handles PUT /api/settings/{key}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		http.Error(w, "Key is required", http.StatusBadRequest)
		return
	}

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Set(key, update.Value); err != nil {
		h.log.Error().
			Err(err).
			Str("key", key).
			Str("value", update.Value).
			Msg("Failed to update setting")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{key: update.Value})
}

// HandleGetAutoDistribution handles GET /api/settings/auto-distribution
func (h *Handler) HandleGetAutoDistribution(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.GetAutoDistribution()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get auto distribution settings")
		http.Error(w, "Failed to get auto distribution settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

// HandleSetAutoDistribution handles PUT /api/settings/auto-distribution
func (h *Handler) HandleSetAutoDistribution(w http.ResponseWriter, r *http.Request) {
	var cfg settings.AutoDistribution
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetAutoDistribution(cfg); err != nil {
		h.log.Error().Err(err).Msg("Failed to save auto distribution settings")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.log.Info().
		Bool("enabled", cfg.Enabled).
		Int("like", cfg.Percentages.Like).
		Int("retweet", cfg.Percentages.Retweet).
		Int("comment", cfg.Percentages.Comment).
		Msg("Auto distribution settings updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}
