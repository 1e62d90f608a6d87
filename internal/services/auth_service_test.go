package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
	"github.com/talkwave-app/talkwave-backend/internal/models"
)

func newAuthService(users *fakeUserStore) *AuthService {
	return NewAuthService(users, fakeTokenIssuer{}, testLogger())
}

func TestRegister(t *testing.T) {
	users := newFakeUserStore()
	svc := newAuthService(users)
	ctx := context.Background()

	token, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", "")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	stored, err := users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Alice", stored.Name)
	assert.Equal(t, models.DefaultImageURL, stored.Image)
	// The stored credential is a hash, never the raw password.
	assert.NotEqual(t, "s3cret-pass", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := newFakeUserStore()
	svc := newAuthService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other Alice", "alice@example.com", "different", "")
	requireKind(t, err, apperr.Conflict, "User already exist")
}

func TestRegisterDuplicateKeyFromIndex(t *testing.T) {
	// A concurrent duplicate can slip past the up-front check and hit the
	// unique index instead; that still has to come back as a Conflict.
	users := newFakeUserStore()
	users.insertErr = mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	svc := newAuthService(users)

	_, err := svc.Register(context.Background(), "Alice", "alice@example.com", "s3cret-pass", "")
	requireKind(t, err, apperr.Conflict, "User already exist")
}

func TestLogin(t *testing.T) {
	users := newFakeUserStore()
	svc := newAuthService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestLoginBadCredentials(t *testing.T) {
	users := newFakeUserStore()
	svc := newAuthService(users)
	ctx := context.Background()

	_, err := svc.Register(ctx, "Alice", "alice@example.com", "s3cret-pass", "")
	require.NoError(t, err)

	// Unknown email and wrong password get the same answer.
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	requireKind(t, err, apperr.Unauthenticated, "Email or password are incorrect")

	_, err = svc.Login(ctx, "alice@example.com", "wrong-pass")
	requireKind(t, err, apperr.Unauthenticated, "Email or password are incorrect")
}
