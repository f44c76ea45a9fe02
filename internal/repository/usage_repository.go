package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrQuotaExhausted возвращается, когда условный инкремент не прошёл:
// счётчик уже достиг лимита.
var ErrQuotaExhausted = errors.New("generation quota exhausted")

// UsageRepository отвечает за месячные счётчики генераций.
type UsageRepository struct {
	db *sqlx.DB
}

// NewUsageRepository создаёт экземпляр репозитория.
func NewUsageRepository(db *sqlx.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// CurrentCount возвращает количество генераций за период.
// Отсутствие строки означает ноль.
func (r *UsageRepository) CurrentCount(ctx context.Context, userID uuid.UUID, period string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT generated_count FROM usage_counters
		WHERE user_id = $1 AND period = $2
	`, userID, period)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage repository: current count %w", err)
	}

	return count, nil
}

// IncrementBelow атомарно увеличивает счётчик, только если он меньше лимита.
// Проверка и инкремент выполняются одной командой на стороне базы, поэтому
// два конкурентных запроса не могут оба пройти проверку, которая должна была
// заблокировать второй. Возвращает новое значение счётчика.
func (r *UsageRepository) IncrementBelow(ctx context.Context, userID uuid.UUID, period string, limit int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		INSERT INTO usage_counters (user_id, period, generated_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, period) DO UPDATE
		SET generated_count = usage_counters.generated_count + 1,
		    updated_at = NOW()
		WHERE usage_counters.generated_count < $3
		RETURNING generated_count
	`, userID, period, limit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Условие WHERE не выполнилось — лимит уже выбран.
			return 0, ErrQuotaExhausted
		}
		return 0, fmt.Errorf("usage repository: increment below %w", err)
	}

	return count, nil
}
