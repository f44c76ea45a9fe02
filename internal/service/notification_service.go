package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/proposalkit/backend/internal/goroutine"
	"github.com/proposalkit/backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationPusher доставляет свежие уведомления в открытые соединения
// (websocket hub). Доставка best-effort.
type NotificationPusher interface {
	PushToUser(userID uuid.UUID, event string, payload interface{}) error
}

// NotificationService содержит бизнес-логику работы с журналом уведомлений.
type NotificationService struct {
	repo   NotificationRepository
	pusher NotificationPusher
}

// NewNotificationService создаёт новый сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetPusher подключает канал живой доставки (опционально).
func (s *NotificationService) SetPusher(pusher NotificationPusher) {
	s.pusher = pusher
}

// Notify добавляет запись в журнал и, если подключён pusher, отправляет её
// в открытое соединение пользователя. Ошибку записи возвращает вызывающему:
// решает он — для сайд-эффектов рабочего процесса это мягкий сбой.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string, link *string) error {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Link:    link,
		IsRead:  false,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return err
	}

	if s.pusher != nil {
		// Живая доставка не должна задерживать ответ и не влияет на успех.
		goroutine.SafeGo(func() {
			_ = s.pusher.PushToUser(userID, "notifications.new", notification)
		})
	}

	return nil
}

// List возвращает уведомления пользователя и пачкой помечает их
// прочитанными: открытие списка и есть прочтение.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.List(ctx, userID, limit, offset, false)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return nil, err
	}

	return notifications, nil
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
