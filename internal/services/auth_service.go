package services

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
	"github.com/talkwave-app/talkwave-backend/pkg/utils"
)

// AuthService registers users and exchanges credentials for a signed
// session token.
type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	logger *slog.Logger
}

func NewAuthService(users UserStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, logger: logger}
}

// Register creates a user and returns a session token. Email uniqueness is
// checked up front and enforced again by the unique index, so a concurrent
// duplicate still surfaces as a Conflict.
func (s *AuthService) Register(ctx context.Context, name, email, password, image string) (string, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", "error", err)
		return "", apperr.ServerError()
	}
	if existing != nil {
		return "", apperr.New(apperr.Conflict, "User already exist")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return "", apperr.ServerError()
	}

	if image == "" {
		image = models.DefaultImageURL
	}
	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hash,
		Image:    image,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperr.New(apperr.Conflict, "User already exist")
		}
		s.logger.Error("failed to create user", "error", err)
		return "", apperr.ServerError()
	}
	s.logger.Info("user registered", "userID", user.ID, "email", email)

	token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
	if err != nil {
		s.logger.Error("failed to issue token", "error", err)
		return "", apperr.ServerError()
	}
	return token, nil
}

// Login verifies credentials and returns a session token. The same answer
// is given for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to look up user", "error", err)
		return "", apperr.ServerError()
	}
	if user != nil {
		ok, err := utils.VerifyPassword(password, user.Password)
		if err == nil && ok {
			token, err := s.tokens.Issue(user.ID, user.Name, user.Email)
			if err != nil {
				s.logger.Error("failed to issue token", "error", err)
				return "", apperr.ServerError()
			}
			return token, nil
		}
	}
	return "", apperr.New(apperr.Unauthenticated, "Email or password are incorrect")
}
