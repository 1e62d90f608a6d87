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

type ChatStore struct {
	coll *mongo.Collection
}

func NewChatStore(db *mongo.Database) *ChatStore {
	return &ChatStore{coll: db.Collection("chats")}
}

// FindByID returns nil, nil when no chat matches.
func (s *ChatStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindDirect looks up the one non-group chat between the two users. Direct
// chats always hold exactly two members, so $all plus $size pins the exact
// pair.
func (s *ChatStore) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	filter := bson.M{
		"is_group_chat": false,
		"users":         bson.M{"$all": bson.A{a, b}, "$size": 2},
	}
	var chat models.Chat
	err := s.coll.FindOne(ctx, filter).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindByMember returns every chat the user belongs to, most recently active
// first. When visibleOnly is set, direct chats that never got a message are
// filtered out so they don't clutter the chat list.
func (s *ChatStore) FindByMember(ctx context.Context, userID primitive.ObjectID, visibleOnly bool) ([]models.Chat, error) {
	filter := bson.M{
		"users": bson.M{"$elemMatch": bson.M{"$eq": userID}},
	}
	if visibleOnly {
		filter["$or"] = bson.A{
			bson.M{"latest_message": bson.M{"$exists": true}},
			bson.M{"is_group_chat": true},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chats []models.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

// Insert persists a new chat and fills in its id and timestamps.
func (s *ChatStore) Insert(ctx context.Context, chat *models.Chat) error {
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	result, err := s.coll.InsertOne(ctx, chat)
	if err != nil {
		return err
	}
	chat.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// Rename updates the chat name only when member is in the chat's user list.
// Returns nil, nil when nothing matched.
func (s *ChatStore) Rename(ctx context.Context, chatID, member primitive.ObjectID, name string) (*models.Chat, error) {
	filter := bson.M{
		"_id":   chatID,
		"users": bson.M{"$elemMatch": bson.M{"$eq": member}},
	}
	update := bson.M{"$set": bson.M{"chat_name": name, "updated_at": time.Now().UTC()}}

	var chat models.Chat
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// AddMembers unions ids into the member set, gated on admin being the
// chat's group admin. $addToSet keeps the set free of duplicates. Returns
// nil, nil when nothing matched (chat missing or caller not admin).
func (s *ChatStore) AddMembers(ctx context.Context, chatID, admin primitive.ObjectID, ids []primitive.ObjectID) (*models.Chat, error) {
	filter := bson.M{"_id": chatID, "group_admin": admin}
	update := bson.M{
		"$addToSet": bson.M{"users": bson.M{"$each": ids}},
		"$set":      bson.M{"updated_at": time.Now().UTC()},
	}

	var chat models.Chat
	err := s.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// PullMember removes one user from the member set and returns the updated
// chat. Authorization happens in the service before this is called.
func (s *ChatStore) PullMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	update := bson.M{
		"$pull": bson.M{"users": userID},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}

	var chat models.Chat
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": chatID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// DeleteByAdmin removes the chat only when admin owns it, so a non-admin
// gets the same "not found" as a caller of a missing chat. Returns the
// deleted chat, or nil, nil when nothing matched.
func (s *ChatStore) DeleteByAdmin(ctx context.Context, chatID, admin primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	err := s.coll.FindOneAndDelete(ctx, bson.M{"_id": chatID, "group_admin": admin}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// SetLatestMessage moves the chat's latest-message pointer and bumps
// updated_at so the chat list resorts.
func (s *ChatStore) SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"latest_message": messageID, "updated_at": time.Now().UTC()}}
	_, err := s.coll.UpdateByID(ctx, chatID, update)
	return err
}
