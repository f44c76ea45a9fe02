package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/proposalkit/backend/internal/models"
)

// InvoiceRepository описывает взаимодействие сервиса с хранилищем счетов.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *models.Invoice) error
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*models.Invoice, error)
	GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Invoice, error)
	List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Invoice, error)
	UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status string) (*models.Invoice, error)
	OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error)
}

// InvoiceService порождает счета из принятых предложений и обслуживает
// их чтение и смену статусов.
type InvoiceService struct {
	repo    InvoiceRepository
	netTerm time.Duration
}

// NewInvoiceService создаёт сервис счетов. netTerm — фиксированный срок
// оплаты от момента принятия.
func NewInvoiceService(repo InvoiceRepository, netTerm time.Duration) *InvoiceService {
	if netTerm <= 0 {
		netTerm = 14 * 24 * time.Hour
	}
	return &InvoiceService{repo: repo, netTerm: netTerm}
}

// GenerateForAcceptance создаёт ровно один счёт из принятого предложения.
// Вызывается только из выигравшего CAS-перехода, поэтому повторную проверку
// «а нет ли уже счёта» сервис не делает — инвариант держит уникальный индекс
// по proposal_id в хранилище.
//
// Цена: точное совпадение имени пакета -> пакет с индексом 1 ("Standard") ->
// сохранённый total_amount -> 0. Сбой подбора цены никогда не блокирует
// принятие предложения.
func (s *InvoiceService) GenerateForAcceptance(ctx context.Context, proposal *models.Proposal, packageName string) (*models.Invoice, error) {
	price := proposal.Content.PackagePrice(packageName, proposal.TotalAmount)

	title := strings.TrimSpace(proposal.Content.Title)
	if title == "" {
		title = "Проект"
	}
	pkgLabel := strings.TrimSpace(packageName)
	if pkgLabel == "" {
		pkgLabel = "Standard"
	}

	now := time.Now()
	dueDate := now.Add(s.netTerm)

	invoice := &models.Invoice{
		OwnerID:    proposal.OwnerID,
		ClientID:   proposal.ClientID,
		ProposalID: &proposal.ID,
		Number:     newInvoiceNumber(now),
		Items: models.InvoiceItems{
			{
				Description: fmt.Sprintf("%s - %s Package", title, pkgLabel),
				Quantity:    1,
				UnitPrice:   price,
				Total:       price,
			},
		},
		Subtotal: price,
		// Налоги в этом ядре не считаются — поля инициализируются нулями.
		TaxRate:   0,
		TaxAmount: 0,
		Total:     price,
		Currency:  proposal.Currency,
		Status:    models.InvoiceStatusSent,
		DueDate:   &dueDate,
	}

	if err := s.repo.Create(ctx, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

// GetByProposalID возвращает счёт, привязанный к предложению.
func (s *InvoiceService) GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.GetByProposalID(ctx, proposalID)
	if err != nil {
		return nil, err
	}

	applyOverdue(invoice)
	return invoice, nil
}

// Get возвращает счёт владельца. Статус overdue вычисляется при чтении.
func (s *InvoiceService) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Invoice, error) {
	invoice, err := s.repo.GetByID(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	applyOverdue(invoice)
	return invoice, nil
}

// List возвращает счета владельца.
func (s *InvoiceService) List(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]models.Invoice, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	invoices, err := s.repo.List(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}

	for i := range invoices {
		applyOverdue(&invoices[i])
	}

	return invoices, nil
}

// UpdateStatus меняет статус счёта в пределах допустимого перечисления.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status string) (*models.Invoice, error) {
	if _, ok := models.ValidInvoiceStatuses[status]; !ok {
		return nil, fmt.Errorf("invoice service: недопустимый статус %q", status)
	}

	return s.repo.UpdateStatus(ctx, id, ownerID, status)
}

// OutstandingTotal возвращает сумму неоплаченных счетов владельца.
func (s *InvoiceService) OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error) {
	return s.repo.OutstandingTotal(ctx, ownerID)
}

// applyOverdue проецирует статус overdue на отправленный счёт с истёкшим
// сроком оплаты. Проекция не пишется в хранилище.
func applyOverdue(inv *models.Invoice) {
	if inv.IsOverdueAt(time.Now()) {
		inv.Status = models.InvoiceStatusOverdue
	}
}

// newInvoiceNumber формирует короткий человекочитаемый номер счёта.
// Уникальность обеспечивается в рамках владельца, не глобально.
func newInvoiceNumber(now time.Time) string {
	suffix := make([]byte, 2)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(suffix)))
}
