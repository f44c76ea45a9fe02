package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter — счётчик генераций предложений за календарный месяц.
type UsageCounter struct {
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	Period         string    `db:"period" json:"period"`
	GeneratedCount int       `db:"generated_count" json:"generated_count"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// UsagePeriod возвращает ключ периода вида "2026-08" для момента t.
func UsagePeriod(t time.Time) string {
	return t.UTC().Format("2006-01")
}
