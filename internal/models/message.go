package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is immutable once created except for ReadBy, which only grows.
type Message struct {
	ID              primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Content         string               `bson:"content" json:"content"`
	Chat            primitive.ObjectID   `bson:"chat" json:"chat"`
	Sender          primitive.ObjectID   `bson:"sender" json:"sender"`
	ReadBy          []primitive.ObjectID `bson:"read_by" json:"readBy"`
	ClientTimestamp *time.Time           `bson:"client_timestamp,omitempty" json:"frontendTimeStamp,omitempty"`
	CreatedAt       time.Time            `bson:"created_at" json:"createdAt"`
}
