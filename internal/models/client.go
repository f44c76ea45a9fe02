package models

import (
	"time"

	"github.com/google/uuid"
)

// Client — заказчик, которому адресовано предложение. Создаётся неявно,
// когда предложение впервые упоминает нового клиента.
type Client struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Company   *string   `db:"company" json:"company,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DisplayName возвращает имя для клиентской страницы предложения.
func (c *Client) DisplayName() string {
	if c == nil {
		return ""
	}
	return c.Name
}
