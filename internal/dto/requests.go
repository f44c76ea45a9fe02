package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/proposalkit/backend/internal/models"
)

// RegisterRequest — запрос регистрации владельца.
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     string  `json:"name" binding:"required"`
	Company  *string `json:"company"`
}

// LoginRequest — запрос входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest — запрос обновления токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// GenerateProposalRequest — запрос генерации предложения.
type GenerateProposalRequest struct {
	ProjectType   string  `json:"project_type"`
	Description   string  `json:"description" binding:"required"`
	ClientName    string  `json:"client_name" binding:"required"`
	ClientCompany *string `json:"client_company"`
	ClientEmail   *string `json:"client_email"`
	Currency      string  `json:"currency"`
	Language      string  `json:"language"`
}

// UpdateProposalRequest — запрос сохранения контента предложения.
type UpdateProposalRequest struct {
	Content    models.ProposalContent `json:"content" binding:"required"`
	Currency   string                 `json:"currency"`
	ValidUntil *time.Time             `json:"valid_until"`
}

// AcceptProposalRequest — решение клиента «принять» с выбранным пакетом.
type AcceptProposalRequest struct {
	Package string `json:"package"`
}

// UpdateInvoiceStatusRequest — смена статуса счёта владельцем.
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateProfileRequest — обновление профиля и брендинга.
type UpdateProfileRequest struct {
	Name       string  `json:"name" binding:"required"`
	Company    *string `json:"company"`
	BrandColor *string `json:"brand_color"`
}

// BillingWebhookRequest — событие платёжного провайдера.
type BillingWebhookRequest struct {
	Type   string    `json:"type" binding:"required"`
	UserID uuid.UUID `json:"user_id"`
	Plan   string    `json:"plan"`
}
