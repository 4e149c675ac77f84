package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/runner"
)

// BotHandlers exposes run control endpoints.
type BotHandlers struct {
	controller *runner.Controller
	log        zerolog.Logger
}

// NewBotHandlers creates run control handlers.
func NewBotHandlers(controller *runner.Controller, log zerolog.Logger) *BotHandlers {
	return &BotHandlers{
		controller: controller,
		log:        log.With().Str("handler", "bot").Logger(),
	}
}

// StartRequest is the body for POST /api/bot/start.
type StartRequest struct {
	TargetURL  string   `json:"target_url"`
	AccountIDs []string `json:"account_ids"`
	RunID      string   `json:"run_id,omitempty"`
}

// HandleStart handles POST /api/bot/start
func (h *BotHandlers) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.controller.Start(req.TargetURL, req.AccountIDs, req.RunID)
	switch {
	case errors.Is(err, runner.ErrAlreadyRunning):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, runner.ErrInvalidTarget), errors.Is(err, runner.ErrNoAccounts):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to start run")
		http.Error(w, "Failed to start run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "started"})
}

// HandleStop handles POST /api/bot/stop
func (h *BotHandlers) HandleStop(w http.ResponseWriter, r *http.Request) {
	err := h.controller.Stop()
	switch {
	case errors.Is(err, runner.ErrNotRunning):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		h.log.Error().Err(err).Msg("Failed to stop run")
		http.Error(w, "Failed to stop run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "stopping"})
}

// HandleStatus handles GET /api/bot/status
func (h *BotHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"is_running": h.controller.Running()})
}
