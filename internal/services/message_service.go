package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

// MessageService owns the message ledger: membership-gated sends, the
// latest-message pointer and per-message read state.
type MessageService struct {
	chats    ChatStore
	messages MessageStore
	tx       TxRunner
	notifier Notifier
	views    *viewBuilder
	logger   *slog.Logger
}

func NewMessageService(users UserStore, chats ChatStore, messages MessageStore, tx TxRunner, notifier Notifier, logger *slog.Logger) *MessageService {
	return &MessageService{
		chats:    chats,
		messages: messages,
		tx:       tx,
		notifier: notifier,
		views:    newViewBuilder(users, messages),
		logger:   logger,
	}
}

// SendMessage appends a message to the chat and moves its latest-message
// pointer, in one transaction where the backend supports it. Membership is
// checked at send time. The populated message is pushed to every other
// member after the write.
func (s *MessageService) SendMessage(ctx context.Context, requester, chatID primitive.ObjectID, content string, clientTS *time.Time) (*models.MessageView, error) {
	if strings.TrimSpace(content) == "" || chatID.IsZero() {
		return nil, apperr.Invalid("Content or chat are invalid")
	}

	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load chat", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "Chat was not found")
	}
	if !chat.HasMember(requester) {
		return nil, apperr.New(apperr.PermissionDenied, "Cannot send message to a chat you are not part of")
	}

	msg := &models.Message{
		Content:         content,
		Chat:            chatID,
		Sender:          requester,
		ReadBy:          []primitive.ObjectID{},
		ClientTimestamp: clientTS,
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.messages.Insert(ctx, msg); err != nil {
			return err
		}
		return s.chats.SetLatestMessage(ctx, chatID, msg.ID)
	})
	if err != nil {
		s.logger.Error("failed to send message", "chatID", chatID, "sender", requester, "error", err)
		return nil, apperr.From(err)
	}
	s.logger.Info("message sent", "chatID", chatID, "messageID", msg.ID, "sender", requester)

	views, err := s.views.messageViews(ctx, []models.Message{*msg}, map[primitive.ObjectID]models.Chat{chat.ID: *chat})
	if err != nil {
		return nil, apperr.From(err)
	}
	view := &views[0]

	s.notifier.Publish(realtime.Event{
		Type:    realtime.EventMessage,
		ChatID:  chatID.Hex(),
		Payload: view,
	}, othersOf(chat.Users, requester))
	return view, nil
}

// ListMessages returns the chat's full history, oldest first, for members
// only.
func (s *MessageService) ListMessages(ctx context.Context, requester, chatID primitive.ObjectID) ([]models.MessageView, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load chat", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "Chat was not found")
	}
	if !chat.HasMember(requester) {
		return nil, apperr.New(apperr.PermissionDenied, "Cannot receive messages from a chat that you are not part of.")
	}

	msgs, err := s.messages.FindByChat(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load messages", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}

	views, err := s.views.messageViews(ctx, msgs, map[primitive.ObjectID]models.Chat{chat.ID: *chat})
	if err != nil {
		return nil, apperr.From(err)
	}
	return views, nil
}

// ListUnreadMessages returns every message across the requester's chats
// that the requester neither sent nor has read yet.
func (s *MessageService) ListUnreadMessages(ctx context.Context, requester primitive.ObjectID) ([]models.MessageView, error) {
	chats, err := s.chats.FindByMember(ctx, requester, false)
	if err != nil {
		s.logger.Error("failed to load member chats", "userID", requester, "error", err)
		return nil, apperr.ServerError()
	}
	if len(chats) == 0 {
		return nil, apperr.New(apperr.NotFound, "chats not found")
	}

	chatMap := make(map[primitive.ObjectID]models.Chat, len(chats))
	chatIDs := make([]primitive.ObjectID, 0, len(chats))
	for _, c := range chats {
		chatMap[c.ID] = c
		chatIDs = append(chatIDs, c.ID)
	}

	msgs, err := s.messages.FindUnread(ctx, chatIDs, requester)
	if err != nil {
		s.logger.Error("failed to load unread messages", "userID", requester, "error", err)
		return nil, apperr.ServerError()
	}

	views, err := s.views.messageViews(ctx, msgs, chatMap)
	if err != nil {
		return nil, apperr.From(err)
	}
	return views, nil
}

// MarkRead adds the requester to read_by for the given messages of the
// chat. The update is a set union, so re-marking is a no-op, never an
// error. Scope is the caller-supplied message-id list.
func (s *MessageService) MarkRead(ctx context.Context, requester, chatID primitive.ObjectID, messageIDs []primitive.ObjectID) (*models.ChatView, error) {
	if chatID.IsZero() {
		return nil, apperr.Invalid("chatId was not provided!")
	}
	if len(messageIDs) == 0 {
		return nil, apperr.Invalid("Messages were not provided!")
	}

	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load chat", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "Chat was not found")
	}
	if !chat.HasMember(requester) {
		return nil, apperr.New(apperr.PermissionDenied, "User is not part of this chat!")
	}

	if err := s.messages.MarkRead(ctx, chatID, messageIDs, requester); err != nil {
		s.logger.Error("failed to mark messages read", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}

	view, err := s.views.chatView(ctx, chat, false)
	if err != nil {
		return nil, apperr.From(err)
	}

	s.notifier.Publish(realtime.Event{
		Type:    realtime.EventReadMessage,
		ChatID:  chatID.Hex(),
		Payload: view,
	}, othersOf(chat.Users, requester))
	return view, nil
}
