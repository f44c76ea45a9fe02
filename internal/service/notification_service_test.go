package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proposalkit/backend/internal/models"
)

type mockNotificationStore struct {
	mock.Mock
}

func (m *mockNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *mockNotificationStore) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationStore) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed []string
	done   chan struct{}
}

func (p *recordingPusher) PushToUser(userID uuid.UUID, event string, payload interface{}) error {
	p.mu.Lock()
	p.pushed = append(p.pushed, event)
	p.mu.Unlock()
	close(p.done)
	return nil
}

func TestNotificationService_Notify_PersistsThenPushes(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewNotificationService(repo)
	pusher := &recordingPusher{done: make(chan struct{})}
	svc.SetPusher(pusher)

	ctx := context.Background()
	userID := uuid.New()
	link := "/proposals/abc"

	repo.On("Create", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == userID &&
			n.Type == models.NotificationProposalViewed &&
			!n.IsRead &&
			n.Link != nil && *n.Link == link
	})).Return(nil)

	err := svc.Notify(ctx, userID, models.NotificationProposalViewed, "Просмотрено", "Клиент открыл предложение", &link)
	assert.NoError(t, err)

	select {
	case <-pusher.done:
	case <-time.After(time.Second):
		t.Fatal("живая доставка не состоялась")
	}

	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Equal(t, []string{"notifications.new"}, pusher.pushed)
}

func TestNotificationService_Notify_CreateFailure(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewNotificationService(repo)
	pusher := &recordingPusher{done: make(chan struct{})}
	svc.SetPusher(pusher)

	ctx := context.Background()
	repo.On("Create", ctx, mock.Anything).Return(errors.New("db down"))

	err := svc.Notify(ctx, uuid.New(), models.NotificationProposalAccepted, "t", "m", nil)
	assert.Error(t, err)

	// Нет записи — нет и доставки.
	pusher.mu.Lock()
	defer pusher.mu.Unlock()
	assert.Empty(t, pusher.pushed)
}

func TestNotificationService_Notify_NoPusher(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewNotificationService(repo)

	ctx := context.Background()
	repo.On("Create", ctx, mock.Anything).Return(nil)

	err := svc.Notify(ctx, uuid.New(), models.NotificationProposalSent, "t", "m", nil)
	assert.NoError(t, err)
}

func TestNotificationService_List_MarksRead(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewNotificationService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("List", ctx, userID, 20, 0, false).Return([]models.Notification{{ID: uuid.New()}}, nil)
	repo.On("MarkAllAsRead", ctx, userID).Return(nil)

	notifications, err := svc.List(ctx, userID, 0, -5)
	assert.NoError(t, err)
	assert.Len(t, notifications, 1)
	repo.AssertCalled(t, "MarkAllAsRead", ctx, userID)
}

func TestNotificationService_CountUnread(t *testing.T) {
	repo := new(mockNotificationStore)
	svc := NewNotificationService(repo)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("CountUnread", ctx, userID).Return(4, nil)

	count, err := svc.CountUnread(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 4, count)
}
