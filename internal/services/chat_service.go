package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/internal/realtime"
)

// ChatService owns the chat registry: direct-chat dedup and group
// membership mutation under admin rules.
type ChatService struct {
	users    UserStore
	chats    ChatStore
	notifier Notifier
	views    *viewBuilder
	logger   *slog.Logger
}

func NewChatService(users UserStore, chats ChatStore, messages MessageStore, notifier Notifier, logger *slog.Logger) *ChatService {
	return &ChatService{
		users:    users,
		chats:    chats,
		notifier: notifier,
		views:    newViewBuilder(users, messages),
		logger:   logger,
	}
}

// GetOrCreateDirectChat returns the existing one-on-one chat between the
// requester and the target, creating it when none exists yet. The dedup
// query runs on every call; the check-then-create is best-effort under
// concurrent first contact.
func (s *ChatService) GetOrCreateDirectChat(ctx context.Context, requester, target primitive.ObjectID) (*models.ChatView, error) {
	user, err := s.users.FindByID(ctx, target)
	if err != nil {
		s.logger.Error("failed to look up direct chat target", "userID", target, "error", err)
		return nil, apperr.ServerError()
	}
	if user == nil {
		return nil, apperr.New(apperr.NotFound, "User does not exist!")
	}

	chat, err := s.chats.FindDirect(ctx, target, requester)
	if err != nil {
		s.logger.Error("direct chat lookup failed", "error", err)
		return nil, apperr.ServerError()
	}
	if chat != nil {
		view, err := s.views.chatView(ctx, chat, true)
		if err != nil {
			return nil, apperr.From(err)
		}
		return view, nil
	}

	newChat := &models.Chat{
		ChatName:    "null", // placeholder; direct chats are displayed by peer name
		IsGroupChat: false,
		Users:       []primitive.ObjectID{target, requester},
	}
	if err := s.chats.Insert(ctx, newChat); err != nil {
		s.logger.Error("failed to create direct chat", "error", err)
		return nil, apperr.ServerError()
	}
	s.logger.Info("direct chat created", "chatID", newChat.ID, "users", newChat.Users)

	view, err := s.views.chatView(ctx, newChat, false)
	if err != nil {
		return nil, apperr.From(err)
	}
	return view, nil
}

// ListChats returns every chat the requester belongs to, most recently
// active first. Direct chats without a first message are hidden.
func (s *ChatService) ListChats(ctx context.Context, requester primitive.ObjectID) ([]models.ChatView, error) {
	chats, err := s.chats.FindByMember(ctx, requester, true)
	if err != nil {
		s.logger.Error("failed to list chats", "userID", requester, "error", err)
		return nil, apperr.ServerError()
	}

	views, err := s.views.chatViews(ctx, chats, true)
	if err != nil {
		return nil, apperr.From(err)
	}
	return views, nil
}

// CreateGroupChat creates a group with the requester as admin. users must
// name at least two other existing users; the requester is added to the
// member set automatically.
func (s *ChatService) CreateGroupChat(ctx context.Context, requester primitive.ObjectID, chatName string, users []primitive.ObjectID, groupImage string) (*models.ChatView, error) {
	if strings.TrimSpace(chatName) == "" {
		return nil, apperr.Invalid("users array and chatName are required!")
	}
	if len(users) < 2 {
		return nil, apperr.Invalid("Group chat must contain more than 2 users!")
	}
	if err := s.requireUsersExist(ctx, users); err != nil {
		return nil, err
	}

	if groupImage == "" {
		groupImage = models.DefaultImageURL
	}
	chat := &models.Chat{
		ChatName:    chatName,
		IsGroupChat: true,
		GroupAdmin:  requester,
		GroupImage:  groupImage,
		Users:       lo.Uniq(append(users, requester)),
	}
	if err := s.chats.Insert(ctx, chat); err != nil {
		s.logger.Error("failed to create group chat", "error", err)
		return nil, apperr.ServerError()
	}
	s.logger.Info("group chat created", "chatID", chat.ID, "admin", requester, "memberCount", len(chat.Users))

	view, err := s.views.chatView(ctx, chat, false)
	if err != nil {
		return nil, apperr.From(err)
	}

	s.notifier.Publish(realtime.Event{Type: realtime.EventAddedToGroup, Payload: view}, othersOf(chat.Users, requester))
	return view, nil
}

// DeleteGroupChat deletes the group only for its admin. A missing group and
// a non-admin caller get the same answer, so existence is not leaked.
func (s *ChatService) DeleteGroupChat(ctx context.Context, requester, chatID primitive.ObjectID) error {
	chat, err := s.chats.DeleteByAdmin(ctx, chatID, requester)
	if err != nil {
		s.logger.Error("failed to delete group chat", "chatID", chatID, "error", err)
		return apperr.ServerError()
	}
	if chat == nil {
		return apperr.New(apperr.NotFound, "Group chat not found!")
	}
	s.logger.Info("group chat deleted", "chatID", chatID, "admin", requester)

	s.notifier.Publish(realtime.Event{
		Type:    realtime.EventDeletingGroup,
		ChatID:  chatID.Hex(),
		Payload: chatID.Hex(),
	}, othersOf(chat.Users, requester))
	return nil
}

// RenameGroup sets a new chat name. Any current member may rename; admin
// status is not required.
func (s *ChatService) RenameGroup(ctx context.Context, requester, chatID primitive.ObjectID, chatName string) (*models.ChatView, error) {
	if strings.TrimSpace(chatName) == "" {
		return nil, apperr.Invalid("chatName is required!")
	}

	chat, err := s.chats.Rename(ctx, chatID, requester, chatName)
	if err != nil {
		s.logger.Error("failed to rename group", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "Group chat was not found!")
	}

	view, err := s.views.chatView(ctx, chat, true)
	if err != nil {
		return nil, apperr.From(err)
	}
	return view, nil
}

// AddMembersToGroup unions users into the member set; only the group admin
// may add. A missing chat and a non-admin caller get the same answer.
func (s *ChatService) AddMembersToGroup(ctx context.Context, requester, chatID primitive.ObjectID, users []primitive.ObjectID) (*models.ChatView, error) {
	if len(users) == 0 {
		return nil, apperr.Invalid("users array is empty")
	}
	if err := s.requireUsersExist(ctx, users); err != nil {
		return nil, err
	}

	chat, err := s.chats.AddMembers(ctx, chatID, requester, users)
	if err != nil {
		s.logger.Error("failed to add group members", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.PermissionDenied, "You do not have permission to add members to this group.")
	}
	s.logger.Info("group members added", "chatID", chatID, "added", len(users))

	view, err := s.views.chatView(ctx, chat, true)
	if err != nil {
		return nil, apperr.From(err)
	}

	s.notifier.Publish(realtime.Event{Type: realtime.EventAddedToGroup, Payload: view}, othersOf(chat.Users, requester))
	return view, nil
}

// RemoveMemberFromGroup removes target from the group. Allowed for the
// admin, or for a member removing themselves; the admin can never be
// removed while the group is active. Returns nil on a self-leave so the
// handler can answer with no content.
func (s *ChatService) RemoveMemberFromGroup(ctx context.Context, requester, chatID, target primitive.ObjectID) (*models.ChatView, error) {
	chat, err := s.chats.FindByID(ctx, chatID)
	if err != nil {
		s.logger.Error("failed to load group", "chatID", chatID, "error", err)
		return nil, apperr.ServerError()
	}
	if chat == nil {
		return nil, apperr.New(apperr.NotFound, "Group chat was not found!")
	}

	if target != requester && chat.GroupAdmin != requester {
		return nil, apperr.New(apperr.PermissionDenied, "You do not have permission to remove this user")
	}
	if chat.GroupAdmin == target {
		return nil, apperr.New(apperr.PermissionDenied, "Admin cannot be removed from an active chat group!")
	}
	if !chat.HasMember(target) {
		return nil, apperr.New(apperr.NotFound, "User not found!")
	}

	updated, err := s.chats.PullMember(ctx, chatID, target)
	if err != nil || updated == nil {
		s.logger.Error("failed to remove group member", "chatID", chatID, "userID", target, "error", err)
		return nil, apperr.ServerError()
	}
	s.logger.Info("group member removed", "chatID", chatID, "userID", target, "by", requester)

	view, viewErr := s.views.chatView(ctx, updated, true)
	if viewErr != nil {
		return nil, apperr.From(viewErr)
	}

	// Remaining members and the removed user both learn about the change.
	recipients := append(othersOf(updated.Users, requester), target)
	s.notifier.Publish(realtime.Event{Type: realtime.EventRemovingFromGroup, Payload: view}, recipients)

	if target == requester {
		return nil, nil // self-leave: success with no content
	}
	return view, nil
}

// requireUsersExist batch-checks that every id resolves to a stored user.
func (s *ChatService) requireUsersExist(ctx context.Context, ids []primitive.ObjectID) error {
	unique := lo.Uniq(ids)
	found, err := s.users.FindManyByIDs(ctx, unique)
	if err != nil {
		s.logger.Error("user existence check failed", "error", err)
		return apperr.ServerError()
	}
	if len(found) != len(unique) {
		return apperr.Invalid("Invalid users!")
	}
	return nil
}

// othersOf returns members minus the acting user, for event addressing.
func othersOf(members []primitive.ObjectID, actor primitive.ObjectID) []primitive.ObjectID {
	return lo.Filter(members, func(id primitive.ObjectID, _ int) bool { return id != actor })
}
