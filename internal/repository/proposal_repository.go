package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository/common"
	"github.com/proposalkit/backend/internal/workflow"
)

// ErrProposalNotFound возвращается, когда предложение не найдено.
var ErrProposalNotFound = errors.New("proposal not found")

// ErrProposalLocked возвращается при попытке изменить контент предложения,
// статус которого этого не допускает.
var ErrProposalLocked = errors.New("proposal content is locked")

// ProposalRepository отвечает за работу с предложениями.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository создаёт экземпляр репозитория.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create создаёт новое предложение в статусе draft.
func (r *ProposalRepository) Create(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (owner_id, client_id, status, content, currency, total_amount, slug, valid_until)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx,
		query,
		p.OwnerID,
		p.ClientID,
		p.Status,
		p.Content,
		p.Currency,
		p.TotalAmount,
		p.Slug,
		p.ValidUntil,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("proposal repository: create %w", err)
	}

	return nil
}

// GetByID возвращает предложение по идентификатору.
func (r *ProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	return common.GetByID[models.Proposal](ctx, r.db, "proposals", id, ErrProposalNotFound)
}

// GetByOwner возвращает предложение по идентификатору с проверкой владельца.
func (r *ProposalRepository) GetByOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Proposal, error) {
	var p models.Proposal
	if err := r.db.GetContext(ctx, &p, `SELECT * FROM proposals WHERE id = $1 AND owner_id = $2`, id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProposalNotFound
		}
		return nil, fmt.Errorf("proposal repository: get by owner %w", err)
	}

	return &p, nil
}

// GetBySlug возвращает предложение по публичному slug.
// Slug — это capability: проверки владельца здесь нет намеренно.
func (r *ProposalRepository) GetBySlug(ctx context.Context, slug string) (*models.Proposal, error) {
	return common.GetByField[models.Proposal](ctx, r.db, "proposals", "slug", slug, ErrProposalNotFound)
}

// List возвращает предложения владельца, опционально фильтруя по статусу.
func (r *ProposalRepository) List(ctx context.Context, ownerID uuid.UUID, status string, limit, offset int) ([]models.Proposal, error) {
	query := `SELECT * FROM proposals WHERE owner_id = $1`
	args := []interface{}{ownerID}
	argIndex := 2

	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}

	if offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, offset)
	}

	var proposals []models.Proposal
	if err := r.db.SelectContext(ctx, &proposals, query, args...); err != nil {
		return nil, fmt.Errorf("proposal repository: list %w", err)
	}

	return proposals, nil
}

// TransitionUpdate описывает условный переход статуса.
type TransitionUpdate struct {
	To            string
	From          []string
	SetSentAt     bool
	SetViewedAt   bool
	SetAcceptedAt bool
	// TotalAmount, если задан, фиксируется в той же команде, что и переход
	// (снимок цены выбранного пакета при принятии).
	TotalAmount *float64
}

// Transition выполняет compare-and-swap по колонке статуса: обновление
// проходит только если текущий статус входит в ожидаемый список. Из двух
// конкурентных вызовов выигрывает ровно один; проигравший получает
// ErrAlreadyResolved или InvalidTransitionError в зависимости от того,
// куда успела уйти строка.
func (r *ProposalRepository) Transition(ctx context.Context, id uuid.UUID, upd TransitionUpdate) (*models.Proposal, error) {
	query := `UPDATE proposals SET status = $1, updated_at = NOW()`
	args := []interface{}{upd.To}
	argIndex := 2

	if upd.SetSentAt {
		query += ", sent_at = NOW()"
	}
	if upd.SetViewedAt {
		query += ", viewed_at = NOW()"
	}
	if upd.SetAcceptedAt {
		query += ", accepted_at = NOW()"
	}
	if upd.TotalAmount != nil {
		query += fmt.Sprintf(", total_amount = $%d", argIndex)
		args = append(args, *upd.TotalAmount)
		argIndex++
	}

	query += fmt.Sprintf(" WHERE id = $%d AND status = ANY($%d) RETURNING *", argIndex, argIndex+1)
	args = append(args, id, pq.Array(upd.From))

	var p models.Proposal
	err := r.db.QueryRowxContext(ctx, query, args...).StructScan(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal repository: transition %w", err)
	}

	// CAS не прошёл: перечитываем строку, чтобы точно классифицировать отказ.
	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}

	return nil, classifyTransitionFailure(current.Status, upd)
}

// classifyTransitionFailure превращает непрошедший CAS в ошибку таксономии:
// проигрыш гонки за разрешение — AlreadyResolved, всё остальное —
// недопустимый переход с фактическим статусом.
func classifyTransitionFailure(actual string, upd TransitionUpdate) error {
	resolving := upd.To == models.ProposalStatusAccepted || upd.To == models.ProposalStatusRejected
	resolved := actual == models.ProposalStatusAccepted ||
		actual == models.ProposalStatusRejected ||
		actual == models.ProposalStatusExpired

	if resolving && resolved {
		return workflow.ErrAlreadyResolved
	}

	return &workflow.InvalidTransitionError{Expected: upd.From, Actual: actual}
}

// UpdateContent сохраняет контент предложения и пересчитанный total_amount.
// Обновление разрешено только в статусах, где владелец может редактировать;
// после accepted контент заморожен.
func (r *ProposalRepository) UpdateContent(ctx context.Context, id, ownerID uuid.UUID, content models.ProposalContent, currency string, totalAmount float64, validUntil interface{}) (*models.Proposal, error) {
	editable := make([]string, 0, len(models.EditableStatuses))
	for status := range models.EditableStatuses {
		editable = append(editable, status)
	}

	query := `
		UPDATE proposals
		SET content = $1, currency = $2, total_amount = $3, valid_until = COALESCE($4, valid_until), updated_at = NOW()
		WHERE id = $5 AND owner_id = $6 AND status = ANY($7)
		RETURNING *
	`

	var p models.Proposal
	err := r.db.QueryRowxContext(ctx, query, content, currency, totalAmount, validUntil, id, ownerID, pq.Array(editable)).StructScan(&p)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("proposal repository: update content %w", err)
	}

	if _, getErr := r.GetByOwner(ctx, id, ownerID); getErr != nil {
		return nil, getErr
	}

	return nil, ErrProposalLocked
}

// ExpireStale переводит в expired все предложения в статусах sent/viewed,
// срок действия которых истёк. Операция идемпотентна: повторный прогон по
// тем же строкам ничего не меняет. Если ownerID задан, обрабатывается
// только этот владелец.
func (r *ProposalRepository) ExpireStale(ctx context.Context, ownerID *uuid.UUID) (int64, error) {
	query := `
		UPDATE proposals
		SET status = $1, updated_at = NOW()
		WHERE status = ANY($2) AND valid_until IS NOT NULL AND valid_until < NOW()
	`
	args := []interface{}{
		models.ProposalStatusExpired,
		pq.Array([]string{models.ProposalStatusSent, models.ProposalStatusViewed}),
	}

	if ownerID != nil {
		query += " AND owner_id = $3"
		args = append(args, *ownerID)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("proposal repository: expire stale %w", err)
	}

	expired, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("proposal repository: expire stale rows affected %w", err)
	}

	return expired, nil
}

// CountByStatus возвращает количество предложений владельца в разрезе статусов.
func (r *ProposalRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT status, COUNT(*) AS cnt
		FROM proposals
		WHERE owner_id = $1
		GROUP BY status
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("proposal repository: count by status %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var cnt int
		if err := rows.Scan(&status, &cnt); err != nil {
			return nil, fmt.Errorf("proposal repository: count by status scan %w", err)
		}
		counts[status] = cnt
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("proposal repository: count by status rows %w", err)
	}

	return counts, nil
}

// Delete удаляет предложение владельца. Ядро рабочего процесса предложения
// не удаляет — это операция владельца из интерфейса.
func (r *ProposalRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM proposals WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("proposal repository: delete %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("proposal repository: delete rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrProposalNotFound
	}

	return nil
}
