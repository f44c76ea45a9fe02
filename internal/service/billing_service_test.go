package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/workflow"
)

type mockBillingUsers struct {
	mock.Mock
}

func (m *mockBillingUsers) UpdatePlan(ctx context.Context, userID uuid.UUID, plan string) error {
	args := m.Called(ctx, userID, plan)
	return args.Error(0)
}

func TestBillingService_SubscriptionCreated(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)
	ctx := context.Background()
	userID := uuid.New()

	users.On("UpdatePlan", ctx, userID, models.PlanPro).Return(nil)

	err := svc.HandleEvent(ctx, WebhookEvent{
		Type:   BillingSubscriptionCreated,
		UserID: userID,
		Plan:   "  Pro ",
	})
	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestBillingService_SubscriptionUpdated_UnknownPlan(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)

	err := svc.HandleEvent(context.Background(), WebhookEvent{
		Type:   BillingSubscriptionUpdated,
		UserID: uuid.New(),
		Plan:   "platinum",
	})
	assert.True(t, workflow.IsValidation(err))
	users.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingService_SubscriptionCanceled(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)
	ctx := context.Background()
	userID := uuid.New()

	users.On("UpdatePlan", ctx, userID, models.PlanFree).Return(nil)

	err := svc.HandleEvent(ctx, WebhookEvent{
		Type:   BillingSubscriptionCanceled,
		UserID: userID,
		Plan:   "pro",
	})
	assert.NoError(t, err)
	users.AssertExpectations(t)
}

func TestBillingService_UnknownEventAcked(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)

	err := svc.HandleEvent(context.Background(), WebhookEvent{
		Type:   "invoice.payment_failed",
		UserID: uuid.New(),
	})
	assert.NoError(t, err)
	users.AssertNotCalled(t, "UpdatePlan", mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingService_MissingUser(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)

	err := svc.HandleEvent(context.Background(), WebhookEvent{
		Type: BillingSubscriptionCreated,
		Plan: "pro",
	})
	assert.True(t, workflow.IsValidation(err))
}

func TestBillingService_Idempotent(t *testing.T) {
	users := new(mockBillingUsers)
	svc := NewBillingService(users)
	ctx := context.Background()
	userID := uuid.New()

	users.On("UpdatePlan", ctx, userID, models.PlanStarter).Return(nil).Twice()

	event := WebhookEvent{Type: BillingSubscriptionUpdated, UserID: userID, Plan: "starter"}
	assert.NoError(t, svc.HandleEvent(ctx, event))
	assert.NoError(t, svc.HandleEvent(ctx, event))
	users.AssertExpectations(t)
}
