package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talkwave-app/talkwave-backend/internal/models"
)

type MessageStore struct {
	coll *mongo.Collection
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{coll: db.Collection("messages")}
}

// EnsureIndexes creates the (chat, created_at) index backing history reads.
func (s *MessageStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "chat", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("idx_chat_created"),
	})
	return err
}

// Insert persists a new message and fills in its id and created_at.
func (s *MessageStore) Insert(ctx context.Context, msg *models.Message) error {
	msg.CreatedAt = time.Now().UTC()
	if msg.ReadBy == nil {
		msg.ReadBy = []primitive.ObjectID{}
	}

	result, err := s.coll.InsertOne(ctx, msg)
	if err != nil {
		return err
	}
	msg.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// FindManyByIDs fetches all messages whose id is in ids.
func (s *MessageStore) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// FindByChat returns every message of the chat, oldest first.
func (s *MessageStore) FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"chat": chatID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// FindUnread returns messages across the given chats that userID neither
// sent nor has read yet.
func (s *MessageStore) FindUnread(ctx context.Context, chatIDs []primitive.ObjectID, userID primitive.ObjectID) ([]models.Message, error) {
	filter := bson.M{
		"chat":    bson.M{"$in": chatIDs},
		"sender":  bson.M{"$ne": userID},
		"read_by": bson.M{"$nin": bson.A{userID}},
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var messages []models.Message
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead adds userID to read_by for the given messages of the chat.
// $addToSet makes re-marking a no-op, never an error.
func (s *MessageStore) MarkRead(ctx context.Context, chatID primitive.ObjectID, messageIDs []primitive.ObjectID, userID primitive.ObjectID) error {
	filter := bson.M{
		"_id":  bson.M{"$in": messageIDs},
		"chat": chatID,
	}
	update := bson.M{"$addToSet": bson.M{"read_by": userID}}
	_, err := s.coll.UpdateMany(ctx, filter, update)
	return err
}
