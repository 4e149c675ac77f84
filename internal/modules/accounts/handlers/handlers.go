// Package handlers provides HTTP handlers for account management.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/eacar/amplify/internal/domain"
	"github.com/eacar/amplify/internal/modules/accounts"
)

// Handler provides HTTP handlers for account endpoints.
type Handler struct {
	repo      *accounts.Repository
	validator *accounts.Validator
	log       zerolog.Logger
}

// NewHandler creates a new accounts handler.
func NewHandler(repo *accounts.Repository, validator *accounts.Validator, log zerolog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		validator: validator,
		log:       log.With().Str("handler", "accounts").Logger(),
	}
}

// HandleList handles GET /api/accounts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.repo.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []domain.Account{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(list)
}

// HandleCreate handles POST /api/accounts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var account domain.Account
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if account.Name == "" {
		http.Error(w, "Account name is required", http.StatusBadRequest)
		return
	}
	if account.CommentStyle == "" {
		account.CommentStyle = domain.StyleFriendly
	}
	if !account.CommentStyle.Valid() {
		http.Error(w, "Invalid comment style", http.StatusBadRequest)
		return
	}

	if err := h.repo.Create(&account); err != nil {
		h.log.Error().Err(err).Str("name", account.Name).Msg("Failed to create account")
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("account", account.Name).Msg("Account created")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// HandleGet handles GET /api/accounts/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account := h.loadAccount(w, r)
	if account == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// HandleUpdate handles PUT /api/accounts/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	existing := h.loadAccount(w, r)
	if existing == nil {
		return
	}

	var update domain.Account
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	update.ID = existing.ID
	update.CreatedAt = existing.CreatedAt
	if update.Name == "" {
		http.Error(w, "Account name is required", http.StatusBadRequest)
		return
	}
	if !update.CommentStyle.Valid() {
		http.Error(w, "Invalid comment style", http.StatusBadRequest)
		return
	}

	if err := h.repo.Update(&update); err != nil {
		h.log.Error().Err(err).Str("id", update.ID).Msg("Failed to update account")
		http.Error(w, "Failed to update account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(update)
}

// HandleDelete handles DELETE /api/accounts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	account := h.loadAccount(w, r)
	if account == nil {
		return
	}

	if err := h.repo.Delete(account.ID); err != nil {
		h.log.Error().Err(err).Str("id", account.ID).Msg("Failed to delete account")
		http.Error(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	h.log.Info().Str("account", account.Name).Msg("Account deleted")
	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle handles POST /api/accounts/{id}/toggle
func (h *Handler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	account := h.loadAccount(w, r)
	if account == nil {
		return
	}

	enabled := !account.Enabled
	if err := h.repo.SetEnabled(account.ID, enabled); err != nil {
		h.log.Error().Err(err).Str("id", account.ID).Msg("Failed to toggle account")
		http.Error(w, "Failed to toggle account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":      account.ID,
		"enabled": enabled,
	})
}

// HandleValidate handles POST /api/accounts/{id}/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	account := h.loadAccount(w, r)
	if account == nil {
		return
	}

	valid, err := h.validator.Validate(r.Context(), *account)
	if err != nil {
		h.log.Error().Err(err).Str("account", account.Name).Msg("Cookie validation failed")
		http.Error(w, "Validation failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":        account.ID,
		"validated": valid,
	})
}

// loadAccount resolves the {id} URL parameter to an account, writing
// the error response itself when the account cannot be loaded.
func (h *Handler) loadAccount(w http.ResponseWriter, r *http.Request) *domain.Account {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Account ID is required", http.StatusBadRequest)
		return nil
	}

	account, err := h.repo.Get(id)
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("Failed to load account")
		http.Error(w, "Failed to load account", http.StatusInternalServerError)
		return nil
	}
	if account == nil {
		http.Error(w, "Account not found", http.StatusNotFound)
		return nil
	}
	return account
}
