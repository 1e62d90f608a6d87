// Package services holds the chat registry, the message ledger, the user
// directory and the auth flow. Services receive their collaborators at
// construction time and normalize every failure to an apperr kind.
package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

// UserStore is the user directory the services read and write.
type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	Search(ctx context.Context, query string, exclude primitive.ObjectID) ([]models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

// ChatStore owns chat documents and their targeted updates.
type ChatStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID, visibleOnly bool) ([]models.Chat, error)
	Insert(ctx context.Context, chat *models.Chat) error
	Rename(ctx context.Context, chatID, member primitive.ObjectID, name string) (*models.Chat, error)
	AddMembers(ctx context.Context, chatID, admin primitive.ObjectID, ids []primitive.ObjectID) (*models.Chat, error)
	PullMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error)
	DeleteByAdmin(ctx context.Context, chatID, admin primitive.ObjectID) (*models.Chat, error)
	SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error
}

// MessageStore owns message documents and their read-state updates.
type MessageStore interface {
	Insert(ctx context.Context, msg *models.Message) error
	FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error)
	FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error)
	FindUnread(ctx context.Context, chatIDs []primitive.ObjectID, userID primitive.ObjectID) ([]models.Message, error)
	MarkRead(ctx context.Context, chatID primitive.ObjectID, messageIDs []primitive.ObjectID, userID primitive.ObjectID) error
}

// TxRunner runs fn atomically when the storage backend supports it.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier is the outbound realtime port. Implementations must not block
// and must never fail the calling request.
type Notifier interface {
	Publish(event realtime.Event, recipients []primitive.ObjectID)
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID primitive.ObjectID, name, email string) (string, error)
}
