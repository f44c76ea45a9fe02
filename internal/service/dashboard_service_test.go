package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proposalkit/backend/internal/models"
)

type mockDashboardProposals struct {
	mock.Mock
}

func (m *mockDashboardProposals) CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[string]int, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *mockDashboardProposals) ExpireStale(ctx context.Context, ownerID *uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockDashboardInvoices struct {
	mock.Mock
}

func (m *mockDashboardInvoices) OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(float64), args.Error(1)
}

func newDashboardFixture() (*mockDashboardProposals, *mockDashboardInvoices, *mockUserStore, *mockUsageStore, *DashboardService) {
	proposals := new(mockDashboardProposals)
	invoices := new(mockDashboardInvoices)
	users := new(mockUserStore)
	usage := new(mockUsageStore)

	generation := NewGenerationService(users, usage, new(mockGenClientStore), new(mockProposalStore), new(mockGenerator), time.Hour)
	svc := NewDashboardService(proposals, invoices, generation, NewCacheService())
	return proposals, invoices, users, usage, svc
}

func TestDashboardService_Summary(t *testing.T) {
	proposals, invoices, users, usage, svc := newDashboardFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	period := models.UsagePeriod(time.Now())

	proposals.On("ExpireStale", ctx, &ownerID).Return(int64(0), nil)
	proposals.On("CountByStatus", ctx, ownerID).Return(map[string]int{
		models.ProposalStatusDraft:    2,
		models.ProposalStatusSent:     1,
		models.ProposalStatusAccepted: 3,
		models.ProposalStatusRejected: 1,
		models.ProposalStatusExpired:  2,
	}, nil)
	invoices.On("OutstandingTotal", ctx, ownerID).Return(450.0, nil)
	users.On("GetByID", ctx, ownerID).Return(&models.User{ID: ownerID, Plan: models.PlanFree}, nil)
	usage.On("CurrentCount", ctx, ownerID, period).Return(2, nil)

	summary, err := svc.Summary(ctx, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, 9, summary.TotalProposals)
	// Доля принятых среди разрешённых: 3 из (3+1+2).
	assert.InDelta(t, 0.5, summary.AcceptanceRate, 1e-9)
	assert.Equal(t, 450.0, summary.Outstanding)
	assert.Equal(t, 2, summary.Quota.Used)
}

func TestDashboardService_Summary_NothingResolved(t *testing.T) {
	proposals, invoices, users, usage, svc := newDashboardFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	period := models.UsagePeriod(time.Now())

	proposals.On("ExpireStale", ctx, &ownerID).Return(int64(0), nil)
	proposals.On("CountByStatus", ctx, ownerID).Return(map[string]int{
		models.ProposalStatusDraft: 1,
		models.ProposalStatusSent:  2,
	}, nil)
	invoices.On("OutstandingTotal", ctx, ownerID).Return(0.0, nil)
	users.On("GetByID", ctx, ownerID).Return(&models.User{ID: ownerID, Plan: models.PlanFree}, nil)
	usage.On("CurrentCount", ctx, ownerID, period).Return(0, nil)

	summary, err := svc.Summary(ctx, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, summary.AcceptanceRate)
}

func TestDashboardService_Summary_SecondCallCached(t *testing.T) {
	proposals, invoices, users, usage, svc := newDashboardFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	period := models.UsagePeriod(time.Now())

	proposals.On("ExpireStale", ctx, &ownerID).Return(int64(0), nil).Twice()
	proposals.On("CountByStatus", ctx, ownerID).Return(map[string]int{}, nil).Once()
	invoices.On("OutstandingTotal", ctx, ownerID).Return(0.0, nil).Once()
	users.On("GetByID", ctx, ownerID).Return(&models.User{ID: ownerID, Plan: models.PlanFree}, nil).Once()
	usage.On("CurrentCount", ctx, ownerID, period).Return(0, nil).Once()

	_, err := svc.Summary(ctx, ownerID)
	assert.NoError(t, err)
	_, err = svc.Summary(ctx, ownerID)
	assert.NoError(t, err)

	proposals.AssertNumberOfCalls(t, "CountByStatus", 1)
}

func TestDashboardService_Summary_ExpiryInvalidatesCache(t *testing.T) {
	proposals, invoices, users, usage, svc := newDashboardFixture()
	ctx := context.Background()
	ownerID := uuid.New()
	period := models.UsagePeriod(time.Now())

	// Первый вызов кладёт сводку в кэш, второй находит просрочку и
	// пересобирает агрегаты заново.
	proposals.On("ExpireStale", ctx, &ownerID).Return(int64(0), nil).Once()
	proposals.On("ExpireStale", ctx, &ownerID).Return(int64(2), nil).Once()
	proposals.On("CountByStatus", ctx, ownerID).Return(map[string]int{}, nil).Twice()
	invoices.On("OutstandingTotal", ctx, ownerID).Return(0.0, nil).Twice()
	users.On("GetByID", ctx, ownerID).Return(&models.User{ID: ownerID, Plan: models.PlanFree}, nil).Twice()
	usage.On("CurrentCount", ctx, ownerID, period).Return(0, nil).Twice()

	_, err := svc.Summary(ctx, ownerID)
	assert.NoError(t, err)
	_, err = svc.Summary(ctx, ownerID)
	assert.NoError(t, err)

	proposals.AssertNumberOfCalls(t, "CountByStatus", 2)
}

func TestCacheService_TTL(t *testing.T) {
	cache := NewCacheService()

	cache.Set("k", "v", 50*time.Millisecond)
	value, found := cache.Get("k")
	assert.True(t, found)
	assert.Equal(t, "v", value)

	time.Sleep(60 * time.Millisecond)
	_, found = cache.Get("k")
	assert.False(t, found)
}

func TestCacheService_InvalidateOwnerCache(t *testing.T) {
	cache := NewCacheService()
	ownerID := uuid.New()
	otherID := uuid.New()

	cache.Set(DashboardCacheKey(ownerID), 1, time.Minute)
	cache.Set(QuotaCacheKey(ownerID), 2, time.Minute)
	cache.Set(DashboardCacheKey(otherID), 3, time.Minute)

	cache.InvalidateOwnerCache(ownerID)

	_, found := cache.Get(DashboardCacheKey(ownerID))
	assert.False(t, found)
	_, found = cache.Get(QuotaCacheKey(ownerID))
	assert.False(t, found)
	_, found = cache.Get(DashboardCacheKey(otherID))
	assert.True(t, found)
}
