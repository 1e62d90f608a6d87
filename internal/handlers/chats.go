package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
)

type accessChatRequest struct {
	UserID string `json:"userId"`
}

// AccessChat returns the direct chat with the given user, creating it on
// first contact.
func (a *API) AccessChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	var req accessChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, apperr.Invalid("userId wasn't sent in the body"))
		return
	}
	target, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "User does not exist!"))
		return
	}

	chat, err := a.Chats.GetOrCreateDirectChat(r.Context(), userID, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// GetChats lists the caller's chats, most recently active first.
func (a *API) GetChats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	chats, err := a.Chats.ListChats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

type createGroupRequest struct {
	ChatName string   `json:"chatName"`
	Users    []string `json:"users"`
	GroupImg string   `json:"groupImg"`
}

// CreateGroupChat creates a group chat with the caller as admin.
func (a *API) CreateGroupChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}

	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid(decodeErrorMessage(err)))
		return
	}
	if req.Users == nil || req.ChatName == "" {
		writeError(w, apperr.Invalid("users array and chatName are required!"))
		return
	}
	users, err := parseIDs(req.Users, "Invalid users!")
	if err != nil {
		writeError(w, err)
		return
	}

	chat, err := a.Chats.CreateGroupChat(r.Context(), userID, req.ChatName, users, req.GroupImg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chat)
}

// DeleteGroupChat deletes a group; admin only.
func (a *API) DeleteGroupChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Group chat not found!"))
		return
	}

	if err := a.Chats.DeleteGroupChat(r.Context(), userID, groupID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameGroupRequest struct {
	ChatName string `json:"chatName"`
}

// RenameGroup sets a new group name; any member may rename.
func (a *API) RenameGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Group chat was not found!"))
		return
	}

	var req renameGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperr.Invalid("chatName is required!"))
		return
	}

	chat, err := a.Chats.RenameGroup(r.Context(), userID, groupID, req.ChatName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

type addMembersRequest struct {
	Users []string `json:"users"`
}

// AddGroupMembers adds users to a group; admin only.
func (a *API) AddGroupMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, apperr.New(apperr.PermissionDenied, "You do not have permission to add members to this group."))
		return
	}

	var req addMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Users == nil {
		writeError(w, apperr.Invalid("users array was not provided!"))
		return
	}
	users, err := parseIDs(req.Users, "Invalid users!")
	if err != nil {
		writeError(w, err)
		return
	}

	chat, err := a.Chats.AddMembersToGroup(r.Context(), userID, groupID, users)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// RemoveGroupMember removes a member (admin) or leaves the group (self).
func (a *API) RemoveGroupMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := requester(r)
	if !ok {
		writeError(w, errNotSignedIn())
		return
	}
	groupID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "groupId"))
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "Group chat was not found!"))
		return
	}
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, apperr.New(apperr.NotFound, "User not found!"))
		return
	}

	chat, err := a.Chats.RemoveMemberFromGroup(r.Context(), userID, groupID, target)
	if err != nil {
		writeError(w, err)
		return
	}
	if chat == nil {
		w.WriteHeader(http.StatusNoContent) // self-leave
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// decodeErrorMessage keeps the original per-field wording for the two body
// shapes clients get wrong in practice.
func decodeErrorMessage(err error) string {
	if ute, ok := err.(*json.UnmarshalTypeError); ok {
		switch ute.Field {
		case "users":
			return "users must be an array!"
		case "groupImg":
			return "groupImg supposed to be a url string!"
		}
	}
	return "Invalid data was sent!"
}
