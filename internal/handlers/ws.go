package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talkwave-app/talkwave-backend/internal/middleware"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer on the HTTP routes.
		return true
	},
}

const wsReadDeadline = 90 * time.Second

// wsClientFrame is what clients send over the socket: chat subscriptions
// and typing signals. Server-side events (messages, group changes) are
// produced by the services, never by socket frames.
type wsClientFrame struct {
	Type   string `json:"type"` // "joinChat", "leaveChat", "typing", "ping"
	ChatID string `json:"chatId,omitempty"`
	Name   string `json:"name,omitempty"`
}

// WebSocket is the realtime gateway. Clients authenticate with the same
// bearer token as the HTTP API (header, or ?token= for browser clients).
func (a *API) WebSocket(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	userID, err := a.Tokens.Verify(token)
	if err != nil {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Ack before registering so no hub goroutine writes concurrently.
	if err := conn.WriteJSON(realtime.Event{Type: realtime.EventSetup, Payload: true}); err != nil {
		return
	}

	userHex := userID.Hex()
	connID := a.Hub.Register(userHex, conn)
	defer a.Hub.Unregister(userHex, connID)

	conn.SetReadLimit(64 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	for {
		var frame wsClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))

		switch frame.Type {
		case "joinChat":
			a.Hub.Subscribe(userHex, connID, frame.ChatID)
		case "leaveChat":
			a.Hub.Unsubscribe(userHex, connID, frame.ChatID)
		case "typing":
			if frame.ChatID == "" {
				continue
			}
			a.Bridge.PublishToChat(realtime.Event{
				Type:    realtime.EventTyping,
				ChatID:  frame.ChatID,
				Payload: frame.Name,
			}, connID)
		case "ping":
			// deadline already refreshed above
		}
	}
}
