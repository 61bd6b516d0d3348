package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/bishalstha/chat-api/internal/authz"
	"github.com/bishalstha/chat-api/internal/repository"
)

type UserHandler struct {
	repo   repository.UserRepository
	logger zerolog.Logger
}

func NewUserHandler(repo repository.UserRepository, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		repo:   repo,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

// List returns every user except the caller, for the conversation picker.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	users, err := h.repo.ListOthers(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
	})
}
