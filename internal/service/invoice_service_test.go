package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/proposalkit/backend/internal/models"
)

type mockInvoiceStore struct {
	mock.Mock
}

func (m *mockInvoiceStore) Create(ctx context.Context, inv *models.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *mockInvoiceStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, id, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, proposalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status string) (*models.Invoice, error) {
	args := m.Called(ctx, id, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *mockInvoiceStore) OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(float64), args.Error(1)
}

var invoiceNumberRe = regexp.MustCompile(`^INV-\d{8}-[0-9A-F]{4}$`)

func TestInvoiceService_GenerateForAcceptance(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 14*24*time.Hour)
	ctx := context.Background()

	proposal := testProposal(models.ProposalStatusAccepted)

	var created *models.Invoice
	repo.On("Create", ctx, mock.MatchedBy(func(inv *models.Invoice) bool {
		created = inv
		return true
	})).Return(nil)

	invoice, err := svc.GenerateForAcceptance(ctx, proposal, "Premium")
	assert.NoError(t, err)
	assert.Equal(t, created, invoice)

	assert.Equal(t, proposal.OwnerID, invoice.OwnerID)
	assert.Equal(t, &proposal.ID, invoice.ProposalID)
	assert.Equal(t, models.InvoiceStatusSent, invoice.Status)
	assert.Regexp(t, invoiceNumberRe, invoice.Number)

	// Одна составная строка «проект — пакет» по цене выбранного пакета.
	assert.Len(t, invoice.Items, 1)
	assert.Equal(t, "Сайт под ключ - Premium Package", invoice.Items[0].Description)
	assert.Equal(t, float64(300), invoice.Items[0].UnitPrice)
	assert.Equal(t, float64(300), invoice.Subtotal)
	assert.Equal(t, float64(300), invoice.Total)
	assert.Equal(t, float64(0), invoice.TaxAmount)

	assert.NotNil(t, invoice.DueDate)
	assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), *invoice.DueDate, time.Minute)
}

func TestInvoiceService_GenerateForAcceptance_PriceFallbacks(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 0)
	ctx := context.Background()
	repo.On("Create", ctx, mock.Anything).Return(nil)

	// Неизвестный пакет: берём пакет с индексом 1 ("Standard").
	proposal := testProposal(models.ProposalStatusAccepted)
	invoice, err := svc.GenerateForAcceptance(ctx, proposal, "Enterprise")
	assert.NoError(t, err)
	assert.Equal(t, float64(200), invoice.Total)

	// Один пакет в контенте: откатываемся на сохранённый total_amount.
	proposal = testProposal(models.ProposalStatusAccepted)
	proposal.Content.Packages = proposal.Content.Packages[:1]
	proposal.TotalAmount = 150
	invoice, err = svc.GenerateForAcceptance(ctx, proposal, "Enterprise")
	assert.NoError(t, err)
	assert.Equal(t, float64(150), invoice.Total)

	// Совсем без данных: счёт на ноль, но принятие не блокируется.
	proposal = testProposal(models.ProposalStatusAccepted)
	proposal.Content.Packages = nil
	proposal.Content.Title = ""
	proposal.TotalAmount = 0
	invoice, err = svc.GenerateForAcceptance(ctx, proposal, "")
	assert.NoError(t, err)
	assert.Equal(t, float64(0), invoice.Total)
	assert.Equal(t, "Проект - Standard Package", invoice.Items[0].Description)
}

func TestInvoiceService_Get_OverdueProjection(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 14*24*time.Hour)
	ctx := context.Background()
	ownerID := uuid.New()
	id := uuid.New()

	past := time.Now().Add(-48 * time.Hour)
	repo.On("GetByID", ctx, id, ownerID).
		Return(&models.Invoice{ID: id, Status: models.InvoiceStatusSent, DueDate: &past}, nil)

	invoice, err := svc.Get(ctx, id, ownerID)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, invoice.Status)
}

func TestInvoiceService_List_OverdueProjection(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 14*24*time.Hour)
	ctx := context.Background()
	ownerID := uuid.New()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	repo.On("List", ctx, ownerID, 20, 0).Return([]models.Invoice{
		{Status: models.InvoiceStatusSent, DueDate: &past},
		{Status: models.InvoiceStatusSent, DueDate: &future},
		{Status: models.InvoiceStatusPaid, DueDate: &past},
	}, nil)

	invoices, err := svc.List(ctx, ownerID, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusOverdue, invoices[0].Status)
	assert.Equal(t, models.InvoiceStatusSent, invoices[1].Status)
	// Оплаченный счёт просроченным не становится.
	assert.Equal(t, models.InvoiceStatusPaid, invoices[2].Status)
}

func TestInvoiceService_UpdateStatus_Invalid(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 14*24*time.Hour)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), uuid.New(), "refunded")
	assert.Error(t, err)
	repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestInvoiceService_UpdateStatus_Paid(t *testing.T) {
	repo := new(mockInvoiceStore)
	svc := NewInvoiceService(repo, 14*24*time.Hour)
	ctx := context.Background()
	ownerID := uuid.New()
	id := uuid.New()

	repo.On("UpdateStatus", ctx, id, ownerID, models.InvoiceStatusPaid).
		Return(&models.Invoice{ID: id, Status: models.InvoiceStatusPaid}, nil)

	invoice, err := svc.UpdateStatus(ctx, id, ownerID, models.InvoiceStatusPaid)
	assert.NoError(t, err)
	assert.Equal(t, models.InvoiceStatusPaid, invoice.Status)
}
