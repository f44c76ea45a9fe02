package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUsageRepository_CurrentCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsageRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT generated_count FROM usage_counters`).
		WithArgs(userID, "2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"generated_count"}).AddRow(2))

	count, err := repo.CurrentCount(context.Background(), userID, "2026-08")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUsageRepository_CurrentCount_NoRowMeansZero(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsageRepository(db)

	mock.ExpectQuery(`SELECT generated_count FROM usage_counters`).
		WillReturnRows(sqlmock.NewRows([]string{"generated_count"}))

	count, err := repo.CurrentCount(context.Background(), uuid.New(), "2026-08")
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUsageRepository_IncrementBelow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsageRepository(db)
	userID := uuid.New()

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WithArgs(userID, "2026-08", 3).
		WillReturnRows(sqlmock.NewRows([]string{"generated_count"}).AddRow(3))

	count, err := repo.IncrementBelow(context.Background(), userID, "2026-08", 3)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageRepository_IncrementBelow_Exhausted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsageRepository(db)

	// Условие WHERE не выполнилось: RETURNING пуст, лимит уже выбран.
	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WillReturnRows(sqlmock.NewRows([]string{"generated_count"}))

	_, err := repo.IncrementBelow(context.Background(), uuid.New(), "2026-08", 3)
	assert.ErrorIs(t, err, ErrQuotaExhausted)
}

func TestUsageRepository_IncrementBelow_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUsageRepository(db)

	mock.ExpectQuery(`INSERT INTO usage_counters`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.IncrementBelow(context.Background(), uuid.New(), "2026-08", 3)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrQuotaExhausted)
}
