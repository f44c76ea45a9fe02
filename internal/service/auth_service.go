package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/validation"
)

// AuthUserRepository описывает взаимодействие сервиса с хранилищем пользователей.
type AuthUserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService отвечает за регистрацию и вход владельцев.
type AuthService struct {
	users  AuthUserRepository
	tokens *TokenManager
}

// NewAuthService создаёт сервис авторизации.
func NewAuthService(users AuthUserRepository, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// RegisterInput описывает данные регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Company  *string
}

// Register создаёт аккаунт на тарифе free и выпускает пару токенов.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, *TokenPair, error) {
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, nil, err
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, nil, fmt.Errorf("auth service: имя обязательно")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("auth service: hash password %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Company:      input.Company,
		Plan:         models.PlanFree,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("auth service: generate tokens %w", err)
	}

	return user, pair, nil
}

// Login проверяет учётные данные и выпускает пару токенов.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, fmt.Errorf("auth service: неверные учётные данные")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, fmt.Errorf("auth service: неверные учётные данные")
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, nil, fmt.Errorf("auth service: generate tokens %w", err)
	}

	return user, pair, nil
}

// Refresh выпускает новую пару по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("auth service: refresh токен невалиден")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("auth service: refresh токен невалиден")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: generate tokens %w", err)
	}

	return pair, nil
}
