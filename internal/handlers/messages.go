package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
)

type sendMessageRequest struct {
	Content           string     `json:"content"`
	Chat              string     `json:"chat"`
	FrontendTimeStamp *time.Time `json:"frontendTimeStamp"`
}

// SendMessage appends a message to a chat the caller belongs to.
func (a *API) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" || req.Chat == "" {
		writeError(w, apperr.Invalid("Content or chat are invalid"))
		return
	}
	chatID, err := primitive.ObjectIDFromHex(req.Chat)
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Chat was not found"))
		return
	}

	msg, err := a.Messages.SendMessage(r.Context(), userID, chatID, req.Content, req.FrontendTimeStamp)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

// GetChatMessages returns a chat's full history, oldest first.
func (a *API) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}
	chatID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "chatId"))
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Chat was not found"))
		return
	}

	msgs, err := a.Messages.ListMessages(r.Context(), userID, chatID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

// GetUnreadMessages returns unread messages across all the caller's chats.
func (a *API) GetUnreadMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	msgs, err := a.Messages.ListUnreadMessages(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

type markReadRequest struct {
	ChatID   string   `json:"chatId"`
	Messages []string `json:"messages"`
}

// MarkRead records that the caller has seen the listed messages.
func (a *API) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid("chatId was not provided!"))
		return
	}
	if req.ChatID == "" {
		writeError(w, apperr.Invalid("chatId was not provided!"))
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, apperr.Invalid("Messages were not provided!"))
		return
	}
	chatID, err := primitive.ObjectIDFromHex(req.ChatID)
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Chat was not found"))
		return
	}
	messageIDs, err := parseIDs(req.Messages, "Messages were not provided!")
	if err != nil {
		writeError(w, err)
		return
	}

	chat, err := a.Messages.MarkRead(r.Context(), userID, chatID, messageIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
