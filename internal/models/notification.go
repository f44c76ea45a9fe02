package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений рабочего процесса.
const (
	NotificationProposalSent     = "proposal_sent"
	NotificationProposalViewed   = "proposal_viewed"
	NotificationProposalAccepted = "proposal_accepted"
	NotificationProposalDeclined = "proposal_declined"
)

// Notification — запись в append-only журнале событий пользователя.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      *string   `db:"link" json:"link,omitempty"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
