package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository/common"
)

// ErrUserNotFound возвращается, когда пользователь не найден.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken возвращается при регистрации на занятую почту.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository отвечает за работу с аккаунтами владельцев.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя на тарифе free.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name, company, plan)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		strings.ToLower(strings.TrimSpace(user.Email)),
		user.PasswordHash,
		user.Name,
		user.Company,
		user.Plan,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetByEmail возвращает пользователя по почте.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: get by email %w", err)
	}

	return &user, nil
}

// UpdateProfile сохраняет имя, компанию и цвет бренда.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, company, brandColor *string) (*models.User, error) {
	query := `
		UPDATE users
		SET name = $1, company = $2, brand_color = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING *
	`

	var user models.User
	if err := r.db.QueryRowxContext(ctx, query, name, company, brandColor, id).StructScan(&user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user repository: update profile %w", err)
	}

	return &user, nil
}

// UpdateLogoPath сохраняет путь к загруженному логотипу.
func (r *UserRepository) UpdateLogoPath(ctx context.Context, id uuid.UUID, logoPath string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET logo_path = $1, updated_at = NOW() WHERE id = $2`, logoPath, id)
	if err != nil {
		return fmt.Errorf("user repository: update logo path %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: update logo path rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// UpdatePlan меняет тариф пользователя. Обновление идемпотентно:
// повторная доставка одного и того же события вебхука ничего не ломает.
func (r *UserRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan string) error {
	if _, ok := models.ValidPlans[plan]; !ok {
		return common.ErrInvalidInput
	}

	result, err := r.db.ExecContext(ctx, `UPDATE users SET plan = $1, updated_at = NOW() WHERE id = $2`, plan, id)
	if err != nil {
		return fmt.Errorf("user repository: update plan %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("user repository: update plan rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
