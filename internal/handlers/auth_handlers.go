package handlers

import (
	"encoding/json"
	"net/http"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"

	"github.com/rs/zerolog"
)

type AuthHandlers struct {
	authService *auth.Service
	logger      zerolog.Logger
}

func NewAuthHandlers(authService *auth.Service, logger zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger.With().Str("component", "auth-handlers").Logger(),
	}
}

func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Msg("registration failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	response, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.logger.Error().Err(err).Msg("login failed")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
