// Package realtime delivers chat events to connected clients. Each instance
// keeps a websocket hub of its local connections; a Redis Pub/Sub bridge
// fans events out across instances. Delivery is best-effort and
// fire-and-forget: a failed notification never fails the request that
// produced it.
package realtime

type EventType string

const (
	EventMessage           EventType = "message"
	EventReadMessage       EventType = "readMessage"
	EventAddedToGroup      EventType = "addedToGroup"
	EventRemovingFromGroup EventType = "removingFromGroup"
	EventDeletingGroup     EventType = "deletingGroup"
	EventTyping            EventType = "typing"
	EventSetup             EventType = "setup"
)

// Event is the payload written to client websockets. ChatID is set for
// chat-scoped events (typing); Payload carries the populated entity for
// entity events (message, group updates).
type Event struct {
	Type    EventType   `json:"type"`
	ChatID  string      `json:"chatId,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// envelope is what travels over Redis: the event plus its recipient user
// ids. An empty recipient list with a ChatID means "everyone subscribed to
// that chat" (typing); Origin names the producing connection so the typer
// does not get their own event echoed back.
type envelope struct {
	Recipients []string `json:"recipients,omitempty"`
	Origin     string   `json:"origin,omitempty"`
	Event      Event    `json:"event"`
}
