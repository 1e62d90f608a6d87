package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChatView is a Chat with its references resolved for the client: member
// documents instead of ids, the admin document and the latest message with
// its sender. Credential fields are dropped by the User JSON tags.
type ChatView struct {
	ID            primitive.ObjectID `json:"_id"`
	ChatName      string             `json:"chatName"`
	IsGroupChat   bool               `json:"isGroupChat"`
	Users         []User             `json:"users"`
	GroupAdmin    *User              `json:"groupAdmin,omitempty"`
	LatestMessage *MessageView       `json:"latestMessage,omitempty"`
	GroupImage    string             `json:"groupImg,omitempty"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// MessageView is a Message with sender (and optionally the chat with its
// members) resolved. Chat is nil when the message is embedded in a ChatView.
type MessageView struct {
	ID              primitive.ObjectID   `json:"_id"`
	Content         string               `json:"content"`
	Sender          User                 `json:"sender"`
	Chat            *ChatView            `json:"chat,omitempty"`
	ReadBy          []primitive.ObjectID `json:"readBy"`
	ClientTimestamp *time.Time           `json:"frontendTimeStamp,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
}
