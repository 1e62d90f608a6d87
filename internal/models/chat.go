package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is a direct (two-party) or group conversation. For direct chats the
// name is a placeholder and GroupAdmin is unset; for group chats GroupAdmin
// is always one of Users.
type Chat struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ChatName      string               `bson:"chat_name" json:"chatName"`
	IsGroupChat   bool                 `bson:"is_group_chat" json:"isGroupChat"`
	Users         []primitive.ObjectID `bson:"users" json:"users"`
	LatestMessage primitive.ObjectID   `bson:"latest_message,omitempty" json:"latestMessage,omitempty"`
	GroupAdmin    primitive.ObjectID   `bson:"group_admin,omitempty" json:"groupAdmin,omitempty"`
	GroupImage    string               `bson:"group_img,omitempty" json:"groupImg,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updatedAt"`
}

// HasMember reports whether id is in the chat's member list.
func (c *Chat) HasMember(id primitive.ObjectID) bool {
	for _, u := range c.Users {
		if u == id {
			return true
		}
	}
	return false
}
