package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository/common"
)

// ErrInvoiceNotFound возвращается, когда счёт не найден.
var ErrInvoiceNotFound = errors.New("invoice not found")

// ErrInvoiceExists возвращается, когда для предложения счёт уже создан.
var ErrInvoiceExists = errors.New("invoice already exists for proposal")

// InvoiceRepository отвечает за работу со счетами.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository создаёт экземпляр репозитория.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create создаёт счёт. Для счетов, привязанных к предложению, действует
// insert-if-absent: уникальный индекс по proposal_id гарантирует не более
// одного счёта на принятое предложение.
func (r *InvoiceRepository) Create(ctx context.Context, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (owner_id, client_id, proposal_id, number, items, subtotal, tax_rate, tax_amount, total, currency, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(
		ctx,
		query,
		inv.OwnerID,
		inv.ClientID,
		inv.ProposalID,
		inv.Number,
		inv.Items,
		inv.Subtotal,
		inv.TaxRate,
		inv.TaxAmount,
		inv.Total,
		inv.Currency,
		inv.Status,
		inv.DueDate,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrInvoiceExists
		}
		return fmt.Errorf("invoice repository: create %w", err)
	}

	return nil
}

// GetByID возвращает счёт по идентификатору с проверкой владельца.
func (r *InvoiceRepository) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Invoice, error) {
	var inv models.Invoice
	if err := r.db.GetContext(ctx, &inv, `SELECT * FROM invoices WHERE id = $1 AND owner_id = $2`, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: get by id %w", err)
	}

	return &inv, nil
}

// GetByProposalID возвращает счёт, созданный из предложения.
func (r *InvoiceRepository) GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Invoice, error) {
	return common.GetByField[models.Invoice](ctx, r.db, "invoices", "proposal_id", proposalID, ErrInvoiceNotFound)
}

// List возвращает счета владельца с пагинацией.
func (r *InvoiceRepository) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	query := `SELECT * FROM invoices WHERE owner_id = $1 ORDER BY created_at DESC`
	args := []interface{}{ownerID}
	argIndex := 2

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("invoice repository: list %w", err)
	}

	return invoices, nil
}

// UpdateStatus меняет статус счёта владельца. При переходе в paid
// фиксируется paid_at.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status string) (*models.Invoice, error) {
	query := `
		UPDATE invoices
		SET status = $1,
		    paid_at = CASE WHEN $1 = 'paid' THEN NOW() ELSE paid_at END,
		    updated_at = NOW()
		WHERE id = $2 AND owner_id = $3
		RETURNING *
	`

	var inv models.Invoice
	if err := r.db.QueryRowxContext(ctx, query, status, id, ownerID).StructScan(&inv); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("invoice repository: update status %w", err)
	}

	return &inv, nil
}

// OutstandingTotal возвращает сумму неоплаченных счетов владельца.
func (r *InvoiceRepository) OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total), 0) FROM invoices
		WHERE owner_id = $1 AND status IN ('sent', 'overdue')
	`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("invoice repository: outstanding total %w", err)
	}

	return total, nil
}
