package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

type chatFixture struct {
	users    *fakeUserStore
	chats    *fakeChatStore
	messages *fakeMessageStore
	notifier *fakeNotifier
	svc      *ChatService
}

func newChatFixture() *chatFixture {
	users := newFakeUserStore()
	chats := newFakeChatStore()
	messages := newFakeMessageStore()
	notifier := &fakeNotifier{}
	return &chatFixture{
		users:    users,
		chats:    chats,
		messages: messages,
		notifier: notifier,
		svc:      NewChatService(users, chats, messages, notifier, testLogger()),
	}
}

func requireKind(t *testing.T, err error, kind apperr.Kind, message string) {
	t.Helper()
	require.Error(t, err)
	ae, ok := err.(*apperr.Error)
	require.True(t, ok, "expected *apperr.Error, got %T", err)
	assert.Equal(t, kind, ae.Kind)
	assert.Equal(t, message, ae.Message)
}

func TestGetOrCreateDirectChatDedup(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")

	first, err := f.svc.GetOrCreateDirectChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, first.ID.IsZero())
	assert.False(t, first.IsGroupChat)
	assert.Len(t, first.Users, 2)

	// Opening from the other side must return the same chat, not a second one.
	second, err := f.svc.GetOrCreateDirectChat(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.chats.chats, 1)
}

func TestGetOrCreateDirectChatUnknownTarget(t *testing.T) {
	f := newChatFixture()
	alice := f.users.add("Alice", "alice@example.com")

	_, err := f.svc.GetOrCreateDirectChat(context.Background(), alice.ID, primitive.NewObjectID())
	requireKind(t, err, apperr.NotFound, "User does not exist!")
	assert.Empty(t, f.chats.chats)
}

func TestListChatsHidesMessagelessDirectChats(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")

	// An empty direct chat, a direct chat with a message and a fresh group.
	empty, err := f.svc.GetOrCreateDirectChat(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	active, err := f.svc.GetOrCreateDirectChat(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	group, err := f.svc.CreateGroupChat(ctx, alice.ID, "book club", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	msg := &models.Message{Content: "hi", Chat: active.ID, Sender: carol.ID, ReadBy: []primitive.ObjectID{}}
	require.NoError(t, f.messages.Insert(ctx, msg))
	require.NoError(t, f.chats.SetLatestMessage(ctx, active.ID, msg.ID))

	views, err := f.svc.ListChats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)

	var ids []primitive.ObjectID
	for _, v := range views {
		ids = append(ids, v.ID)
	}
	assert.Contains(t, ids, active.ID)
	assert.Contains(t, ids, group.ID)
	assert.NotContains(t, ids, empty.ID)

	// The chat with a message carries its populated latest message.
	for _, v := range views {
		if v.ID == active.ID {
			require.NotNil(t, v.LatestMessage)
			assert.Equal(t, "hi", v.LatestMessage.Content)
			assert.Equal(t, carol.ID, v.LatestMessage.Sender.ID)
		}
	}
}

func TestCreateGroupChat(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")

	view, err := f.svc.CreateGroupChat(ctx, alice.ID, "book club", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)
	assert.True(t, view.IsGroupChat)
	assert.Equal(t, "book club", view.ChatName)
	assert.Len(t, view.Users, 3)
	require.NotNil(t, view.GroupAdmin)
	assert.Equal(t, alice.ID, view.GroupAdmin.ID)
	assert.Equal(t, models.DefaultImageURL, view.GroupImage)

	ev := f.notifier.last()
	require.NotNil(t, ev)
	assert.Equal(t, realtime.EventAddedToGroup, ev.event.Type)
	assert.ElementsMatch(t, []primitive.ObjectID{bob.ID, carol.ID}, ev.recipients)
}

func TestCreateGroupChatValidation(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")

	tests := []struct {
		name     string
		chatName string
		users    []primitive.ObjectID
		message  string
	}{
		{"blank name", "  ", []primitive.ObjectID{bob.ID, primitive.NewObjectID()}, "users array and chatName are required!"},
		{"too few users", "team", []primitive.ObjectID{bob.ID}, "Group chat must contain more than 2 users!"},
		{"unknown user", "team", []primitive.ObjectID{bob.ID, primitive.NewObjectID()}, "Invalid users!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateGroupChat(ctx, alice.ID, tt.chatName, tt.users, "")
			requireKind(t, err, apperr.InvalidArgument, tt.message)
		})
	}
	assert.Empty(t, f.chats.chats)
}

func TestCreateGroupChatDedupsRequester(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")

	// The requester listed among users must not appear twice.
	view, err := f.svc.CreateGroupChat(ctx, alice.ID, "team", []primitive.ObjectID{bob.ID, carol.ID, alice.ID}, "")
	require.NoError(t, err)
	assert.Len(t, view.Users, 3)
}

func TestDeleteGroupChat(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")

	group, err := f.svc.CreateGroupChat(ctx, alice.ID, "team", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	// A member who is not the admin gets the same answer as a missing chat.
	err = f.svc.DeleteGroupChat(ctx, bob.ID, group.ID)
	requireKind(t, err, apperr.NotFound, "Group chat not found!")
	assert.Len(t, f.chats.chats, 1)

	require.NoError(t, f.svc.DeleteGroupChat(ctx, alice.ID, group.ID))
	assert.Empty(t, f.chats.chats)

	ev := f.notifier.last()
	require.NotNil(t, ev)
	assert.Equal(t, realtime.EventDeletingGroup, ev.event.Type)
	assert.ElementsMatch(t, []primitive.ObjectID{bob.ID, carol.ID}, ev.recipients)
}

func TestRenameGroup(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")
	outsider := f.users.add("Mallory", "mallory@example.com")

	group, err := f.svc.CreateGroupChat(ctx, alice.ID, "team", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	_, err = f.svc.RenameGroup(ctx, alice.ID, group.ID, "  ")
	requireKind(t, err, apperr.InvalidArgument, "chatName is required!")

	_, err = f.svc.RenameGroup(ctx, outsider.ID, group.ID, "hijacked")
	requireKind(t, err, apperr.NotFound, "Group chat was not found!")

	// Any member may rename, not only the admin.
	view, err := f.svc.RenameGroup(ctx, bob.ID, group.ID, "reading group")
	require.NoError(t, err)
	assert.Equal(t, "reading group", view.ChatName)
}

func TestAddMembersToGroup(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")
	dave := f.users.add("Dave", "dave@example.com")

	group, err := f.svc.CreateGroupChat(ctx, alice.ID, "team", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	_, err = f.svc.AddMembersToGroup(ctx, alice.ID, group.ID, nil)
	requireKind(t, err, apperr.InvalidArgument, "users array is empty")

	_, err = f.svc.AddMembersToGroup(ctx, bob.ID, group.ID, []primitive.ObjectID{dave.ID})
	requireKind(t, err, apperr.PermissionDenied, "You do not have permission to add members to this group.")

	view, err := f.svc.AddMembersToGroup(ctx, alice.ID, group.ID, []primitive.ObjectID{dave.ID, bob.ID})
	require.NoError(t, err)
	assert.Len(t, view.Users, 4) // bob was already a member, the add is a set union

	ev := f.notifier.last()
	require.NotNil(t, ev)
	assert.Equal(t, realtime.EventAddedToGroup, ev.event.Type)
	assert.ElementsMatch(t, []primitive.ObjectID{bob.ID, carol.ID, dave.ID}, ev.recipients)
}

func TestRemoveMemberFromGroup(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	alice := f.users.add("Alice", "alice@example.com")
	bob := f.users.add("Bob", "bob@example.com")
	carol := f.users.add("Carol", "carol@example.com")

	group, err := f.svc.CreateGroupChat(ctx, alice.ID, "team", []primitive.ObjectID{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	t.Run("non-admin cannot remove another member", func(t *testing.T) {
		_, err := f.svc.RemoveMemberFromGroup(ctx, bob.ID, group.ID, carol.ID)
		requireKind(t, err, apperr.PermissionDenied, "You do not have permission to remove this user")
	})

	t.Run("admin cannot be removed", func(t *testing.T) {
		_, err := f.svc.RemoveMemberFromGroup(ctx, alice.ID, group.ID, alice.ID)
		requireKind(t, err, apperr.PermissionDenied, "Admin cannot be removed from an active chat group!")
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := f.svc.RemoveMemberFromGroup(ctx, alice.ID, group.ID, primitive.NewObjectID())
		requireKind(t, err, apperr.NotFound, "User not found!")
	})

	t.Run("admin removes a member", func(t *testing.T) {
		view, err := f.svc.RemoveMemberFromGroup(ctx, alice.ID, group.ID, carol.ID)
		require.NoError(t, err)
		require.NotNil(t, view)
		assert.Len(t, view.Users, 2)

		// The removed user is told too, not only the remaining members.
		ev := f.notifier.last()
		require.NotNil(t, ev)
		assert.Equal(t, realtime.EventRemovingFromGroup, ev.event.Type)
		assert.ElementsMatch(t, []primitive.ObjectID{bob.ID, carol.ID}, ev.recipients)
	})

	t.Run("self-leave returns no view", func(t *testing.T) {
		view, err := f.svc.RemoveMemberFromGroup(ctx, bob.ID, group.ID, bob.ID)
		require.NoError(t, err)
		assert.Nil(t, view)

		stored, err := f.chats.FindByID(ctx, group.ID)
		require.NoError(t, err)
		assert.False(t, stored.HasMember(bob.ID))
	})
}
