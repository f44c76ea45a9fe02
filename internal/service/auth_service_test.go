package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/repository/common"
)

type memoryUserStore struct {
	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (s *memoryUserStore) Create(ctx context.Context, user *models.User) error {
	if _, exists := s.byEmail[user.Email]; exists {
		return common.ErrAlreadyExists
	}
	user.ID = uuid.New()
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *memoryUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (s *memoryUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func newAuthFixture() (*memoryUserStore, *AuthService, *TokenManager) {
	store := newMemoryUserStore()
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	return store, NewAuthService(store, tokens), tokens
}

func registerInput() RegisterInput {
	return RegisterInput{
		Email:    "Ivan@Example.com",
		Password: "Str0ngPass",
		Name:     "  Иван  ",
	}
}

func TestAuthService_Register(t *testing.T) {
	store, svc, tokens := newAuthFixture()
	ctx := context.Background()

	user, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	assert.Equal(t, "ivan@example.com", user.Email)
	assert.Equal(t, "Иван", user.Name)
	assert.Equal(t, models.PlanFree, user.Plan)
	assert.NotEqual(t, "Str0ngPass", user.PasswordHash)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	parsedID, err := tokens.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsedID)
	assert.Len(t, store.byEmail, 1)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	_, svc, _ := newAuthFixture()
	ctx := context.Background()

	input := registerInput()
	input.Email = "not-an-email"
	_, _, err := svc.Register(ctx, input)
	assert.Error(t, err)

	input = registerInput()
	input.Password = "short"
	_, _, err = svc.Register(ctx, input)
	assert.Error(t, err)

	input = registerInput()
	input.Name = "   "
	_, _, err = svc.Register(ctx, input)
	assert.Error(t, err)
}

func TestAuthService_Login(t *testing.T) {
	_, svc, _ := newAuthFixture()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, "ivan@example.com", "Str0ngPass")
	assert.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	_, svc, _ := newAuthFixture()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "ivan@example.com", "WrongPass1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверные учётные данные")
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	_, svc, _ := newAuthFixture()

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "Str0ngPass")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "неверные учётные данные")
}

func TestAuthService_Refresh(t *testing.T) {
	_, svc, _ := newAuthFixture()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	fresh, err := svc.Refresh(ctx, pair.RefreshToken)
	assert.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)
}

func TestAuthService_Refresh_AccessTokenRejected(t *testing.T) {
	_, svc, _ := newAuthFixture()
	ctx := context.Background()

	_, pair, err := svc.Register(ctx, registerInput())
	require.NoError(t, err)

	// Access токен подписан другим секретом и refresh'ем не является.
	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.Error(t, err)
}
