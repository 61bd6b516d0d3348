package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/bishalstha/chat-api/internal/authz"
	"github.com/bishalstha/chat-api/internal/models"
	"github.com/bishalstha/chat-api/internal/notification"
	"github.com/bishalstha/chat-api/internal/repository"
)

type MessageHandler struct {
	repo     repository.MessageRepository
	notifier notification.Notifier
	logger   zerolog.Logger
}

func NewMessageHandler(repo repository.MessageRepository, notifier notification.Notifier, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		repo:     repo,
		notifier: notifier,
		logger:   logger.With().Str("handler", "message").Logger(),
	}
}

// List returns the conversation between the caller and ?user_id=N, oldest
// first. A missing user_id yields an empty conversation rather than an error.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"messages": []models.Message{}})
		return
	}
	otherID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || otherID <= 0 {
		http.Error(w, "Invalid user_id", http.StatusBadRequest)
		return
	}

	messages, err := h.repo.ListConversation(r.Context(), userID, otherID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list conversation")
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// Create persists a message and, once the write is durable, pushes a
// new_message event at the receiver's topic. Notification failures never
// affect the response.
func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}
	username, _ := authz.UsernameFromRequest(r)

	var payload struct {
		ReceiverID int64  `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.ReceiverID <= 0 || payload.ReceiverID == userID {
		http.Error(w, "Invalid receiver", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Content) == "" {
		http.Error(w, "Content is required", http.StatusBadRequest)
		return
	}

	msg, err := h.repo.Create(r.Context(), userID, payload.ReceiverID, payload.Content)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create message")
		http.Error(w, "Failed to create message", http.StatusInternalServerError)
		return
	}

	h.notifier.Notify(msg.ReceiverID, models.NewMessageEvent{
		ID:        msg.ID,
		SenderID:  msg.SenderID,
		Sender:    username,
		Content:   msg.Content,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusCreated, msg)
}

// Delete removes one of the caller's own messages and notifies the receiver.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	messageID, ok := messageIDFromPath(r)
	if !ok {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	msg, err := h.repo.GetByID(r.Context(), messageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Message not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("message_id", messageID).Msg("failed to load message")
		http.Error(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}

	if err := h.repo.Delete(r.Context(), messageID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Exists but is not the caller's to delete.
			http.Error(w, "Only the sender can delete a message", http.StatusForbidden)
			return
		}
		h.logger.Error().Err(err).Int64("message_id", messageID).Msg("failed to delete message")
		http.Error(w, "Failed to delete message", http.StatusInternalServerError)
		return
	}

	h.notifier.Notify(msg.ReceiverID, models.MessageDeletedEvent{MessageID: messageID})

	w.WriteHeader(http.StatusNoContent)
}

// MarkRead stamps a received message as read and sends the read receipt back
// to the sender's topic.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	messageID, ok := messageIDFromPath(r)
	if !ok {
		http.Error(w, "Invalid message ID", http.StatusBadRequest)
		return
	}

	msg, err := h.repo.MarkRead(r.Context(), messageID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Message not found", http.StatusNotFound)
			return
		}
		h.logger.Error().Err(err).Int64("message_id", messageID).Msg("failed to mark message as read")
		http.Error(w, "Failed to update message", http.StatusInternalServerError)
		return
	}

	h.notifier.Notify(msg.SenderID, models.MessageReadEvent{MessageID: msg.ID})

	writeJSON(w, http.StatusOK, msg)
}

// TestNotify fires a canned new_message event at the caller's own topic so a
// subscribed client can be verified end to end.
func (h *MessageHandler) TestNotify(w http.ResponseWriter, r *http.Request) {
	userID, ok := authz.UserIDFromRequest(r)
	if !ok {
		http.Error(w, "Missing user context", http.StatusUnauthorized)
		return
	}

	h.notifier.Notify(userID, models.NewMessageEvent{
		SenderID:  userID,
		Sender:    "System Test",
		Content:   "This is a test notification",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func messageIDFromPath(r *http.Request) (int64, bool) {
	raw := strings.TrimSpace(mux.Vars(r)["messageID"])
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
