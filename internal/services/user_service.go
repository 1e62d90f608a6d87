package services

import (
	"context"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
)

// UserService is the user directory: lookups and text search.
type UserService struct {
	users  UserStore
	logger *slog.Logger
}

func NewUserService(users UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Search matches name or email case-insensitively, excluding the searching
// user. Zero matches is a NotFound, not an empty list.
func (s *UserService) Search(ctx context.Context, requester primitive.ObjectID, query string) ([]models.User, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperr.Invalid("search query is required!")
	}

	users, err := s.users.Search(ctx, query, requester)
	if err != nil {
		s.logger.Error("user search failed", "error", err)
		return nil, apperr.ServerError()
	}
	if len(users) == 0 {
		return nil, apperr.New(apperr.NotFound, "Not Found!")
	}
	return users, nil
}
