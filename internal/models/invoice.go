package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvoiceItem — строка счёта.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// InvoiceItems хранится в колонке JSONB.
type InvoiceItems []InvoiceItem

// Value сериализует строки счёта для записи в JSONB.
func (items InvoiceItems) Value() (driver.Value, error) {
	return json.Marshal(items)
}

// Scan читает строки счёта из JSONB.
func (items *InvoiceItems) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, items)
	case string:
		return json.Unmarshal([]byte(v), items)
	case nil:
		*items = nil
		return nil
	default:
		return fmt.Errorf("invoice items: неподдерживаемый тип %T", src)
	}
}

// Invoice представляет счёт, выставленный клиенту.
// Для принятого предложения существует не более одного счёта.
type Invoice struct {
	ID         uuid.UUID    `db:"id" json:"id"`
	OwnerID    uuid.UUID    `db:"owner_id" json:"owner_id"`
	ClientID   *uuid.UUID   `db:"client_id" json:"client_id,omitempty"`
	ProposalID *uuid.UUID   `db:"proposal_id" json:"proposal_id,omitempty"`
	Number     string       `db:"number" json:"number"`
	Items      InvoiceItems `db:"items" json:"items"`
	Subtotal   float64      `db:"subtotal" json:"subtotal"`
	TaxRate    float64      `db:"tax_rate" json:"tax_rate"`
	TaxAmount  float64      `db:"tax_amount" json:"tax_amount"`
	Total      float64      `db:"total" json:"total"`
	Currency   string       `db:"currency" json:"currency"`
	Status     string       `db:"status" json:"status"`
	DueDate    *time.Time   `db:"due_date" json:"due_date,omitempty"`
	PaidAt     *time.Time   `db:"paid_at" json:"paid_at,omitempty"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

// IsOverdueAt сообщает, просрочен ли счёт к моменту now.
// Статус overdue вычисляется при чтении, а не пишется фоновым процессом.
func (i *Invoice) IsOverdueAt(now time.Time) bool {
	if i.Status != InvoiceStatusSent {
		return false
	}
	return i.DueDate != nil && i.DueDate.Before(now)
}
