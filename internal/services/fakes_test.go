package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserStore keeps users in a map and mirrors the store's query semantics.
type fakeUserStore struct {
	mu        sync.Mutex
	users     map[primitive.ObjectID]models.User
	insertErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (f *fakeUserStore) add(name, email string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := models.User{
		ID:    primitive.NewObjectID(),
		Name:  name,
		Email: email,
		Image: models.DefaultImageURL,
	}
	f.users[u.ID] = u
	return u
}

func (f *fakeUserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Search(ctx context.Context, query string, exclude primitive.ObjectID) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range f.users {
		if u.ID == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserStore) Insert(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

// fakeChatStore keeps chats in a map and mirrors the store's filtered
// updates: renames require membership, member adds require the admin.
type fakeChatStore struct {
	mu    sync.Mutex
	chats map[primitive.ObjectID]models.Chat
}

func newFakeChatStore() *fakeChatStore {
	return &fakeChatStore{chats: make(map[primitive.ObjectID]models.Chat)}
}

func (f *fakeChatStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.chats[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (f *fakeChatStore) FindDirect(ctx context.Context, a, b primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.chats {
		if c.IsGroupChat || len(c.Users) != 2 {
			continue
		}
		if c.HasMember(a) && c.HasMember(b) {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeChatStore) FindByMember(ctx context.Context, userID primitive.ObjectID, visibleOnly bool) ([]models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Chat
	for _, c := range f.chats {
		if !c.HasMember(userID) {
			continue
		}
		if visibleOnly && !c.IsGroupChat && c.LatestMessage.IsZero() {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeChatStore) Insert(ctx context.Context, chat *models.Chat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	chat.ID = primitive.NewObjectID()
	chat.CreatedAt = time.Now()
	chat.UpdatedAt = chat.CreatedAt
	f.chats[chat.ID] = *chat
	return nil
}

func (f *fakeChatStore) Rename(ctx context.Context, chatID, member primitive.ObjectID, name string) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok || !c.HasMember(member) {
		return nil, nil
	}
	c.ChatName = name
	c.UpdatedAt = time.Now()
	f.chats[chatID] = c
	return &c, nil
}

func (f *fakeChatStore) AddMembers(ctx context.Context, chatID, admin primitive.ObjectID, ids []primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok || c.GroupAdmin != admin {
		return nil, nil
	}
	for _, id := range ids {
		if !c.HasMember(id) {
			c.Users = append(c.Users, id)
		}
	}
	c.UpdatedAt = time.Now()
	f.chats[chatID] = c
	return &c, nil
}

func (f *fakeChatStore) PullMember(ctx context.Context, chatID, userID primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return nil, nil
	}
	var kept []primitive.ObjectID
	for _, u := range c.Users {
		if u != userID {
			kept = append(kept, u)
		}
	}
	c.Users = kept
	c.UpdatedAt = time.Now()
	f.chats[chatID] = c
	return &c, nil
}

func (f *fakeChatStore) DeleteByAdmin(ctx context.Context, chatID, admin primitive.ObjectID) (*models.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok || c.GroupAdmin != admin {
		return nil, nil
	}
	delete(f.chats, chatID)
	return &c, nil
}

func (f *fakeChatStore) SetLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.chats[chatID]
	if !ok {
		return nil
	}
	c.LatestMessage = messageID
	c.UpdatedAt = time.Now()
	f.chats[chatID] = c
	return nil
}

// fakeMessageStore appends messages to a slice in insertion order.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []models.Message
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{}
}

func (f *fakeMessageStore) Insert(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	msg.CreatedAt = time.Now()
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeMessageStore) FindManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []models.Message
	for _, m := range f.messages {
		if want[m.ID] {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) FindByChat(ctx context.Context, chatID primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if m.Chat == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) FindUnread(ctx context.Context, chatIDs []primitive.ObjectID, userID primitive.ObjectID) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inChats := make(map[primitive.ObjectID]bool, len(chatIDs))
	for _, id := range chatIDs {
		inChats[id] = true
	}
	var out []models.Message
	for _, m := range f.messages {
		if !inChats[m.Chat] || m.Sender == userID {
			continue
		}
		read := false
		for _, r := range m.ReadBy {
			if r == userID {
				read = true
				break
			}
		}
		if !read {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(ctx context.Context, chatID primitive.ObjectID, messageIDs []primitive.ObjectID, userID primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := make(map[primitive.ObjectID]bool, len(messageIDs))
	for _, id := range messageIDs {
		want[id] = true
	}
	for i, m := range f.messages {
		if m.Chat != chatID || !want[m.ID] {
			continue
		}
		already := false
		for _, r := range m.ReadBy {
			if r == userID {
				already = true
				break
			}
		}
		if !already {
			f.messages[i].ReadBy = append(f.messages[i].ReadBy, userID)
		}
	}
	return nil
}

// recordedEvent pairs an event with who it was addressed to.
type recordedEvent struct {
	event      realtime.Event
	recipients []primitive.ObjectID
}

// fakeNotifier records published events instead of delivering them.
type fakeNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeNotifier) Publish(event realtime.Event, recipients []primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, recordedEvent{event: event, recipients: recipients})
}

func (f *fakeNotifier) all() []recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedEvent(nil), f.events...)
}

func (f *fakeNotifier) last() *recordedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.events) == 0 {
		return nil
	}
	e := f.events[len(f.events)-1]
	return &e
}

// fakeTxRunner runs fn directly; the fakes have no transactions.
type fakeTxRunner struct{}

func (fakeTxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeTokenIssuer issues a deterministic token so tests can assert on it.
type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(userID primitive.ObjectID, name, email string) (string, error) {
	return "token-" + userID.Hex(), nil
}
