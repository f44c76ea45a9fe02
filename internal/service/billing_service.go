package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/workflow"
)

// Типы событий биллинг-провайдера, которые ядро умеет обрабатывать.
const (
	BillingSubscriptionCreated  = "subscription.created"
	BillingSubscriptionUpdated  = "subscription.updated"
	BillingSubscriptionCanceled = "subscription.canceled"
)

// BillingUserRepository — смена тарифа пользователя.
type BillingUserRepository interface {
	UpdatePlan(ctx context.Context, userID uuid.UUID, plan string) error
}

// BillingService обрабатывает вебхуки платёжного провайдера и проецирует
// их на тариф пользователя. Проверка подписи вебхука — забота HTTP-слоя.
type BillingService struct {
	users BillingUserRepository
	log   *logrus.Entry
}

// NewBillingService создаёт сервис биллинга.
func NewBillingService(users BillingUserRepository) *BillingService {
	return &BillingService{
		users: users,
		log:   logger.WithComponent("billing_service"),
	}
}

// WebhookEvent — распарсенное событие провайдера.
type WebhookEvent struct {
	Type   string    `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	Plan   string    `json:"plan"`
}

// HandleEvent применяет событие подписки к тарифу пользователя.
// Обработка идемпотентна: повторная доставка того же события приводит
// к той же записи тарифа. Неизвестные типы событий подтверждаются без
// эффекта — провайдер не должен ретраить то, что мы не обрабатываем.
func (s *BillingService) HandleEvent(ctx context.Context, event WebhookEvent) error {
	switch event.Type {
	case BillingSubscriptionCreated, BillingSubscriptionUpdated:
		plan := strings.ToLower(strings.TrimSpace(event.Plan))
		if _, ok := models.ValidPlans[plan]; !ok {
			return workflow.NewValidationError("неизвестный тариф %q", event.Plan)
		}
		return s.applyPlan(ctx, event.UserID, plan, event.Type)

	case BillingSubscriptionCanceled:
		// Отмена подписки возвращает на free; квота нового тарифа начинает
		// действовать со следующей генерации.
		return s.applyPlan(ctx, event.UserID, models.PlanFree, event.Type)

	default:
		s.log.WithField("type", event.Type).Info("событие биллинга проигнорировано")
		return nil
	}
}

func (s *BillingService) applyPlan(ctx context.Context, userID uuid.UUID, plan, eventType string) error {
	if userID == uuid.Nil {
		return workflow.NewValidationError("событие биллинга без пользователя")
	}

	if err := s.users.UpdatePlan(ctx, userID, plan); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": userID,
		"plan":    plan,
		"event":   eventType,
	}).Info("тариф обновлён по вебхуку")

	return nil
}
