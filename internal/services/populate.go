package services

import (
	"context"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/models"
)

// viewBuilder assembles response views from stored documents: a bounded set
// of named joins (chat→users, chat→admin, chat→latestMessage→sender,
// message→sender, message→chat→users) done with batch lookups.
type viewBuilder struct {
	users    UserStore
	messages MessageStore
}

func newViewBuilder(users UserStore, messages MessageStore) *viewBuilder {
	return &viewBuilder{users: users, messages: messages}
}

func (v *viewBuilder) userMap(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	users, err := v.users.FindManyByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, err
	}
	return lo.KeyBy(users, func(u models.User) primitive.ObjectID { return u.ID }), nil
}

// chatViews resolves a batch of chats, including latest messages and their
// senders when withLatest is set.
func (v *viewBuilder) chatViews(ctx context.Context, chats []models.Chat, withLatest bool) ([]models.ChatView, error) {
	var userIDs []primitive.ObjectID
	var messageIDs []primitive.ObjectID
	for _, c := range chats {
		userIDs = append(userIDs, c.Users...)
		if !c.GroupAdmin.IsZero() {
			userIDs = append(userIDs, c.GroupAdmin)
		}
		if withLatest && !c.LatestMessage.IsZero() {
			messageIDs = append(messageIDs, c.LatestMessage)
		}
	}

	latest := map[primitive.ObjectID]models.Message{}
	if len(messageIDs) > 0 {
		msgs, err := v.messages.FindManyByIDs(ctx, messageIDs)
		if err != nil {
			return nil, err
		}
		latest = lo.KeyBy(msgs, func(m models.Message) primitive.ObjectID { return m.ID })
		for _, m := range msgs {
			userIDs = append(userIDs, m.Sender)
		}
	}

	users, err := v.userMap(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.ChatView, 0, len(chats))
	for _, c := range chats {
		view := buildChatView(c, users)
		if m, ok := latest[c.LatestMessage]; ok {
			mv := buildMessageView(m, users)
			view.LatestMessage = &mv
		}
		views = append(views, view)
	}
	return views, nil
}

// chatView resolves a single chat.
func (v *viewBuilder) chatView(ctx context.Context, chat *models.Chat, withLatest bool) (*models.ChatView, error) {
	views, err := v.chatViews(ctx, []models.Chat{*chat}, withLatest)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// messageViews resolves messages with their senders and, per message, the
// owning chat and its members. chats must contain every referenced chat.
func (v *viewBuilder) messageViews(ctx context.Context, msgs []models.Message, chats map[primitive.ObjectID]models.Chat) ([]models.MessageView, error) {
	var userIDs []primitive.ObjectID
	for _, m := range msgs {
		userIDs = append(userIDs, m.Sender)
	}
	for _, c := range chats {
		userIDs = append(userIDs, c.Users...)
		if !c.GroupAdmin.IsZero() {
			userIDs = append(userIDs, c.GroupAdmin)
		}
	}

	users, err := v.userMap(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(msgs))
	for _, m := range msgs {
		mv := buildMessageView(m, users)
		if c, ok := chats[m.Chat]; ok {
			cv := buildChatView(c, users)
			mv.Chat = &cv
		}
		views = append(views, mv)
	}
	return views, nil
}

func buildChatView(c models.Chat, users map[primitive.ObjectID]models.User) models.ChatView {
	view := models.ChatView{
		ID:          c.ID,
		ChatName:    c.ChatName,
		IsGroupChat: c.IsGroupChat,
		Users:       make([]models.User, 0, len(c.Users)),
		GroupImage:  c.GroupImage,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, id := range c.Users {
		if u, ok := users[id]; ok {
			view.Users = append(view.Users, u)
		}
	}
	if admin, ok := users[c.GroupAdmin]; ok {
		view.GroupAdmin = &admin
	}
	return view
}

func buildMessageView(m models.Message, users map[primitive.ObjectID]models.User) models.MessageView {
	return models.MessageView{
		ID:              m.ID,
		Content:         m.Content,
		Sender:          users[m.Sender],
		ReadBy:          m.ReadBy,
		ClientTimestamp: m.ClientTimestamp,
		CreatedAt:       m.CreatedAt,
	}
}
