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

// ErrClientNotFound возвращается, когда клиент не найден.
var ErrClientNotFound = errors.New("client not found")

// ClientRepository отвечает за работу с клиентами фрилансера.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository создаёт экземпляр репозитория.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetByID возвращает клиента по идентификатору.
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return common.GetByID[models.Client](ctx, r.db, "clients", id, ErrClientNotFound)
}

// GetOrCreate находит клиента владельца по имени/почте или создаёт нового.
// Клиент появляется неявно, когда предложение впервые его упоминает.
func (r *ClientRepository) GetOrCreate(ctx context.Context, ownerID uuid.UUID, name string, company, email *string) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrInvalidInput
	}

	var existing models.Client
	var err error
	if email != nil && strings.TrimSpace(*email) != "" {
		err = r.db.GetContext(ctx, &existing, `
			SELECT * FROM clients WHERE owner_id = $1 AND LOWER(email) = LOWER($2)
		`, ownerID, strings.TrimSpace(*email))
	} else {
		err = r.db.GetContext(ctx, &existing, `
			SELECT * FROM clients WHERE owner_id = $1 AND LOWER(name) = LOWER($2)
		`, ownerID, name)
	}
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("client repository: lookup %w", err)
	}

	client := &models.Client{
		OwnerID: ownerID,
		Name:    name,
		Company: company,
		Email:   email,
	}

	query := `
		INSERT INTO clients (owner_id, name, company, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query, ownerID, name, company, email).
		Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt); err != nil {
		return nil, fmt.Errorf("client repository: create %w", err)
	}

	return client, nil
}

// List возвращает клиентов владельца.
func (r *ClientRepository) List(ctx context.Context, ownerID uuid.UUID) ([]models.Client, error) {
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, `
		SELECT * FROM clients WHERE owner_id = $1 ORDER BY name
	`, ownerID); err != nil {
		return nil, fmt.Errorf("client repository: list %w", err)
	}

	return clients, nil
}
