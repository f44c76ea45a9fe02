package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StandardPackageIndex — позиция пакета «Standard» в массиве пакетов.
// Исторически цена по умолчанию берётся из пакета с индексом 1.
const StandardPackageIndex = 1

// Package описывает один из трёх тарифных пакетов предложения.
type Package struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Features    []string `json:"features,omitempty"`
}

// TimelinePhase описывает этап работ в таймлайне предложения.
type TimelinePhase struct {
	Phase    string `json:"phase"`
	Duration string `json:"duration,omitempty"`
	Details  string `json:"details,omitempty"`
}

// ProposalContent — структурированное содержимое предложения.
// Хранится в колонке JSONB.
type ProposalContent struct {
	Title    string          `json:"title"`
	Summary  string          `json:"summary,omitempty"`
	Scope    []string        `json:"scope,omitempty"`
	Timeline []TimelinePhase `json:"timeline,omitempty"`
	Packages []Package       `json:"packages"`
	Terms    string          `json:"terms,omitempty"`
}

// Value сериализует контент для записи в JSONB.
func (c ProposalContent) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan читает контент из JSONB.
func (c *ProposalContent) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	case nil:
		*c = ProposalContent{}
		return nil
	default:
		return fmt.Errorf("proposal content: неподдерживаемый тип %T", src)
	}
}

// IsEmpty сообщает, достаточно ли контента для отправки клиенту.
func (c ProposalContent) IsEmpty() bool {
	return strings.TrimSpace(c.Title) == "" || len(c.Packages) == 0
}

// PackagePrice разрешает цену выбранного пакета.
// Порядок: точное совпадение имени -> пакет с индексом 1 ("Standard") ->
// fallback (обычно сохранённый total_amount) -> 0.
func (c ProposalContent) PackagePrice(name string, fallback float64) float64 {
	for _, pkg := range c.Packages {
		if strings.EqualFold(strings.TrimSpace(pkg.Name), strings.TrimSpace(name)) {
			return pkg.Price
		}
	}
	if len(c.Packages) > StandardPackageIndex {
		return c.Packages[StandardPackageIndex].Price
	}
	if fallback > 0 {
		return fallback
	}
	return 0
}

// DefaultPrice возвращает цену пакета «Standard» (индекс 1), либо цену
// первого пакета, либо 0 — используется для пересчёта total_amount при
// сохранении контента.
func (c ProposalContent) DefaultPrice() float64 {
	if len(c.Packages) > StandardPackageIndex {
		return c.Packages[StandardPackageIndex].Price
	}
	if len(c.Packages) > 0 {
		return c.Packages[0].Price
	}
	return 0
}

// Proposal представляет коммерческое предложение фрилансера клиенту.
type Proposal struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OwnerID     uuid.UUID       `db:"owner_id" json:"owner_id"`
	ClientID    *uuid.UUID      `db:"client_id" json:"client_id,omitempty"`
	Status      string          `db:"status" json:"status"`
	Content     ProposalContent `db:"content" json:"content"`
	Currency    string          `db:"currency" json:"currency"`
	TotalAmount float64         `db:"total_amount" json:"total_amount"`
	Slug        string          `db:"slug" json:"slug"`
	ValidUntil  *time.Time      `db:"valid_until" json:"valid_until,omitempty"`
	SentAt      *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	ViewedAt    *time.Time      `db:"viewed_at" json:"viewed_at,omitempty"`
	AcceptedAt  *time.Time      `db:"accepted_at" json:"accepted_at,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsExpiredAt сообщает, истёк ли срок действия предложения к моменту now.
func (p *Proposal) IsExpiredAt(now time.Time) bool {
	return p.ValidUntil != nil && p.ValidUntil.Before(now)
}
