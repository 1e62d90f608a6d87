package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/talkwave-app/talkwave-backend/internal/handlers"
	"github.com/talkwave-app/talkwave-backend/internal/middleware"
)

func SetupRoutes(r *chi.Mux, api *handlers.API, verifier middleware.TokenVerifier) {
	// Auth routes (no token required)
	r.Post("/api/auth/register", api.Register)
	r.Post("/api/auth/login", api.Login)

	// Everything below requires a valid bearer token
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier))

		// User directory
		r.Get("/api/user/search", api.SearchUsers)

		// Chat registry
		r.Post("/api/chat", api.AccessChat)
		r.Get("/api/chat", api.GetChats)
		r.Post("/api/chat/group", api.CreateGroupChat)
		r.Put("/api/chat/group/{groupId}", api.RenameGroup)
		r.Delete("/api/chat/group/{groupId}", api.DeleteGroupChat)
		r.Put("/api/chat/group/{groupId}/members", api.AddGroupMembers)
		r.Delete("/api/chat/group/{groupId}/members/{userId}", api.RemoveGroupMember)

		// Message ledger
		r.Post("/api/message", api.SendMessage)
		r.Put("/api/message", api.MarkRead)
		r.Get("/api/message/unread", api.GetUnreadMessages)
		r.Get("/api/message/chat/{chatId}", api.GetChatMessages)

		// Image uploads
		r.Post("/api/upload", api.Upload)
	})

	// WebSocket gateway authenticates inside the handler (token query
	// param support for browser clients)
	r.Get("/ws", api.WebSocket)
}
