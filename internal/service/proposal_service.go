package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/proposalkit/backend/internal/email"
	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/workflow"
)

// ProposalRepository описывает взаимодействие сервиса с хранилищем предложений.
type ProposalRepository interface {
	Create(ctx context.Context, p *models.Proposal) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	GetByOwner(ctx context.Context, id, ownerID uuid.UUID) (*models.Proposal, error)
	GetBySlug(ctx context.Context, slug string) (*models.Proposal, error)
	List(ctx context.Context, ownerID uuid.UUID, status string, limit, offset int) ([]models.Proposal, error)
	Transition(ctx context.Context, id uuid.UUID, upd repository.TransitionUpdate) (*models.Proposal, error)
	UpdateContent(ctx context.Context, id, ownerID uuid.UUID, content models.ProposalContent, currency string, totalAmount float64, validUntil interface{}) (*models.Proposal, error)
	ExpireStale(ctx context.Context, ownerID *uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

// ProposalClientRepository — чтение клиентов для писем и публичной страницы.
type ProposalClientRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// ProposalUserRepository — чтение владельца для брендинга и писем.
type ProposalUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// InvoiceIssuer порождает счёт для принятого предложения и умеет
// перечитать уже существующий.
type InvoiceIssuer interface {
	GenerateForAcceptance(ctx context.Context, proposal *models.Proposal, packageName string) (*models.Invoice, error)
	GetByProposalID(ctx context.Context, proposalID uuid.UUID) (*models.Invoice, error)
}

// Notifier пишет запись в журнал уведомлений владельца.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, notifType, title, message string, link *string) error
}

// ProposalService — контроллер жизненного цикла предложения. Все смены
// статуса проходят через CAS в хранилище; сайд-эффекты запускаются только
// после зафиксированного перехода и никогда его не откатывают.
type ProposalService struct {
	proposals    ProposalRepository
	clients      ProposalClientRepository
	users        ProposalUserRepository
	invoices     InvoiceIssuer
	notifier     Notifier
	mailer       email.Sender
	publicAppURL string
	validity     time.Duration
	log          *logrus.Entry
}

// NewProposalService создаёт контроллер жизненного цикла.
func NewProposalService(
	proposals ProposalRepository,
	clients ProposalClientRepository,
	users ProposalUserRepository,
	invoices InvoiceIssuer,
	notifier Notifier,
	mailer email.Sender,
	publicAppURL string,
	validity time.Duration,
) *ProposalService {
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	return &ProposalService{
		proposals:    proposals,
		clients:      clients,
		users:        users,
		invoices:     invoices,
		notifier:     notifier,
		mailer:       mailer,
		publicAppURL: strings.TrimRight(publicAppURL, "/"),
		validity:     validity,
		log:          logger.WithComponent("proposal_service"),
	}
}

// LifecycleResult — результат операции со сменой статуса. Warnings содержит
// человекочитаемые описания мягких сбоев сайд-эффектов (почта, уведомление,
// счёт): переход при них уже зафиксирован.
type LifecycleResult struct {
	Proposal *models.Proposal `json:"proposal"`
	Invoice  *models.Invoice  `json:"invoice,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

// Get возвращает предложение владельца.
func (s *ProposalService) Get(ctx context.Context, id, ownerID uuid.UUID) (*models.Proposal, error) {
	return s.proposals.GetByOwner(ctx, id, ownerID)
}

// List возвращает предложения владельца с опциональным фильтром по статусу.
func (s *ProposalService) List(ctx context.Context, ownerID uuid.UUID, status string, limit, offset int) ([]models.Proposal, error) {
	if status != "" {
		if _, ok := models.ValidProposalStatuses[status]; !ok {
			return nil, workflow.NewValidationError("неизвестный статус %q", status)
		}
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.proposals.List(ctx, ownerID, status, limit, offset)
}

// UpdateContent сохраняет отредактированный контент и пересчитывает
// total_amount от пакета «Standard». Редактирование допустимо только в
// статусах draft, viewed и rejected — это контролирует хранилище.
func (s *ProposalService) UpdateContent(ctx context.Context, id, ownerID uuid.UUID, content models.ProposalContent, currency string, validUntil *time.Time) (*models.Proposal, error) {
	if content.IsEmpty() {
		return nil, workflow.NewValidationError("контент предложения не может быть пустым")
	}

	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "RUB"
	}

	var vu interface{}
	if validUntil != nil {
		vu = *validUntil
	}

	return s.proposals.UpdateContent(ctx, id, ownerID, content, currency, content.DefaultPrice(), vu)
}

// Send переводит предложение в sent и отправляет письмо клиенту.
// Повторная отправка из rejected допустима тем же ребром таблицы переходов.
// Письмо — мягкий сайд-эффект: его сбой попадает в Warnings, а не в ошибку.
func (s *ProposalService) Send(ctx context.Context, id, ownerID uuid.UUID) (*LifecycleResult, error) {
	proposal, err := s.proposals.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	if proposal.Content.IsEmpty() {
		return nil, workflow.NewValidationError("нельзя отправить предложение без заголовка и пакетов")
	}

	updated, err := s.proposals.Transition(ctx, id, repository.TransitionUpdate{
		To:        models.ProposalStatusSent,
		From:      models.TransitionSources(models.ProposalStatusSent),
		SetSentAt: true,
	})
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{Proposal: updated}
	s.emailClientAboutProposal(ctx, updated, result)

	return result, nil
}

// PublicView — данные публичной страницы предложения. Наружу уходит только
// allow-list: контент, статус и брендинг владельца. Почта владельца, тариф
// и внутренние идентификаторы не раскрываются.
type PublicView struct {
	Slug       string                 `json:"slug"`
	Status     string                 `json:"status"`
	Content    models.ProposalContent `json:"content"`
	Currency   string                 `json:"currency"`
	ValidUntil *time.Time             `json:"valid_until,omitempty"`
	Branding   models.Branding        `json:"branding"`
	ClientName string                 `json:"client_name,omitempty"`
}

// RecordView обслуживает открытие публичной ссылки: ленивая проверка срока,
// переход sent -> viewed при первом открытии и сборка публичного вида.
// Повторные открытия и открытия в терминальных статусах ничего не меняют.
func (s *ProposalService) RecordView(ctx context.Context, slug string) (*PublicView, error) {
	proposal, err := s.proposals.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	proposal = s.lazyExpire(ctx, proposal)

	if proposal.Status == models.ProposalStatusSent {
		updated, err := s.proposals.Transition(ctx, proposal.ID, repository.TransitionUpdate{
			To:          models.ProposalStatusViewed,
			From:        models.TransitionSources(models.ProposalStatusViewed),
			SetViewedAt: true,
		})
		switch {
		case err == nil:
			proposal = updated
			// Уведомление «просмотрено» — только при первом открытии:
			// его порождает выигравший переход, а не каждый запрос.
			s.notifyOwner(ctx, proposal, models.NotificationProposalViewed,
				"Предложение просмотрено",
				fmt.Sprintf("Клиент открыл предложение «%s».", proposal.Content.Title), nil)
		case workflow.IsInvalidTransition(err) || errors.Is(err, workflow.ErrAlreadyResolved):
			// Конкурентное открытие или разрешение: перечитываем и отдаём как есть.
			if current, getErr := s.proposals.GetByID(ctx, proposal.ID); getErr == nil {
				proposal = current
			}
		default:
			return nil, err
		}
	}

	return s.buildPublicView(ctx, proposal)
}

// Accept обслуживает решение клиента «принять» по публичной ссылке.
// CAS-переход выигрывает ровно один вызов; он же фиксирует снимок цены
// выбранного пакета и запускает сайд-эффекты: счёт, два письма, уведомление.
func (s *ProposalService) Accept(ctx context.Context, slug, packageName string) (*LifecycleResult, error) {
	proposal, err := s.proposals.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	proposal = s.lazyExpire(ctx, proposal)

	amount := proposal.Content.PackagePrice(packageName, proposal.TotalAmount)

	updated, err := s.proposals.Transition(ctx, proposal.ID, repository.TransitionUpdate{
		To:            models.ProposalStatusAccepted,
		From:          models.TransitionSources(models.ProposalStatusAccepted),
		SetAcceptedAt: true,
		TotalAmount:   &amount,
	})
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{Proposal: updated}

	// Сайд-эффекты после зафиксированного перехода. Любой их сбой —
	// предупреждение: клиентское «принято» уже состоялось.
	invoice, err := s.invoices.GenerateForAcceptance(ctx, updated, packageName)
	if err != nil {
		if errors.Is(err, repository.ErrInvoiceExists) {
			// Счёт уже есть — инвариант «не более одного» удержан индексом.
			invoice, err = s.invoices.GetByProposalID(ctx, updated.ID)
		}
		if err != nil {
			s.log.WithError(err).WithField("proposal_id", updated.ID).Error("не удалось создать счёт")
			result.Warnings = append(result.Warnings, "счёт не создан: "+err.Error())
		}
	}
	result.Invoice = invoice

	s.notifyOwner(ctx, updated, models.NotificationProposalAccepted,
		"Предложение принято",
		fmt.Sprintf("Клиент принял предложение «%s» на сумму %.2f %s.", updated.Content.Title, amount, updated.Currency),
		&result.Warnings)

	s.emailAcceptance(ctx, updated, invoice, packageName, result)

	return result, nil
}

// Reject обслуживает решение клиента «отклонить» по публичной ссылке.
func (s *ProposalService) Reject(ctx context.Context, slug string) (*LifecycleResult, error) {
	proposal, err := s.proposals.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	proposal = s.lazyExpire(ctx, proposal)

	updated, err := s.proposals.Transition(ctx, proposal.ID, repository.TransitionUpdate{
		To:   models.ProposalStatusRejected,
		From: models.TransitionSources(models.ProposalStatusRejected),
	})
	if err != nil {
		return nil, err
	}

	result := &LifecycleResult{Proposal: updated}

	s.notifyOwner(ctx, updated, models.NotificationProposalDeclined,
		"Предложение отклонено",
		fmt.Sprintf("Клиент отклонил предложение «%s». Его можно доработать и отправить снова.", updated.Content.Title),
		&result.Warnings)

	if owner, err := s.users.GetByID(ctx, updated.OwnerID); err == nil {
		s.sendMail(ctx, email.Message{
			Kind:      email.KindProposalDeclinedOwner,
			Recipient: owner.Email,
			Fields:    map[string]string{"title": updated.Content.Title},
		}, result)
	}

	return result, nil
}

// Sweep переводит в expired все просроченные sent/viewed предложения.
// Операция идемпотентна и безопасна для конкурентного запуска: строку
// обновляет ровно один из перекрывающихся прогонов.
func (s *ProposalService) Sweep(ctx context.Context, ownerID *uuid.UUID) (int64, error) {
	expired, err := s.proposals.ExpireStale(ctx, ownerID)
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.log.WithField("expired", expired).Info("просроченные предложения закрыты")
	}

	return expired, nil
}

// Duplicate создаёт новый черновик с контентом существующего предложения.
// Slug, статус и отметки времени — новые: дубликат начинает цикл заново.
func (s *ProposalService) Duplicate(ctx context.Context, id, ownerID uuid.UUID) (*models.Proposal, error) {
	source, err := s.proposals.GetByOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	validUntil := time.Now().Add(s.validity)

	copyProposal := &models.Proposal{
		OwnerID:     source.OwnerID,
		ClientID:    source.ClientID,
		Status:      models.ProposalStatusDraft,
		Content:     source.Content,
		Currency:    source.Currency,
		TotalAmount: source.Content.DefaultPrice(),
		ValidUntil:  &validUntil,
	}

	for attempt := 0; attempt < 3; attempt++ {
		slug, err := newSlug()
		if err != nil {
			return nil, fmt.Errorf("proposal service: slug %w", err)
		}
		copyProposal.Slug = slug

		if err := s.proposals.Create(ctx, copyProposal); err == nil {
			return copyProposal, nil
		}
	}

	return nil, fmt.Errorf("proposal service: не удалось создать дубликат")
}

// Delete удаляет предложение владельца.
func (s *ProposalService) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.proposals.Delete(ctx, id, ownerID)
}

// lazyExpire закрывает просроченное предложение при обращении по публичной
// ссылке, не дожидаясь планового прогона. Сбой перехода не мешает чтению:
// наружу в любом случае уходит фактический статус.
func (s *ProposalService) lazyExpire(ctx context.Context, p *models.Proposal) *models.Proposal {
	if !p.IsExpiredAt(time.Now()) {
		return p
	}
	if p.Status != models.ProposalStatusSent && p.Status != models.ProposalStatusViewed {
		return p
	}

	updated, err := s.proposals.Transition(ctx, p.ID, repository.TransitionUpdate{
		To:   models.ProposalStatusExpired,
		From: models.TransitionSources(models.ProposalStatusExpired),
	})
	if err != nil {
		if current, getErr := s.proposals.GetByID(ctx, p.ID); getErr == nil {
			return current
		}
		return p
	}

	return updated
}

// buildPublicView собирает публичное представление предложения.
func (s *ProposalService) buildPublicView(ctx context.Context, p *models.Proposal) (*PublicView, error) {
	owner, err := s.users.GetByID(ctx, p.OwnerID)
	if err != nil {
		return nil, err
	}

	view := &PublicView{
		Slug:       p.Slug,
		Status:     p.Status,
		Content:    p.Content,
		Currency:   p.Currency,
		ValidUntil: p.ValidUntil,
		Branding:   owner.PublicBranding(),
	}

	if p.ClientID != nil {
		if client, err := s.clients.GetByID(ctx, *p.ClientID); err == nil {
			view.ClientName = client.DisplayName()
		}
	}

	return view, nil
}

// notifyOwner пишет уведомление владельцу; сбой — мягкий.
func (s *ProposalService) notifyOwner(ctx context.Context, p *models.Proposal, notifType, title, message string, warnings *[]string) {
	link := "/proposals/" + p.ID.String()
	if err := s.notifier.Notify(ctx, p.OwnerID, notifType, title, message, &link); err != nil {
		s.log.WithError(err).WithField("proposal_id", p.ID).Warn("уведомление не записано")
		if warnings != nil {
			*warnings = append(*warnings, "уведомление не записано: "+err.Error())
		}
	}
}

// emailClientAboutProposal отправляет клиенту письмо со ссылкой на
// публичную страницу. Без почты клиента письмо пропускается с предупреждением.
func (s *ProposalService) emailClientAboutProposal(ctx context.Context, p *models.Proposal, result *LifecycleResult) {
	if p.ClientID == nil {
		result.Warnings = append(result.Warnings, "письмо клиенту не отправлено: клиент не указан")
		return
	}

	client, err := s.clients.GetByID(ctx, *p.ClientID)
	if err != nil || client.Email == nil || strings.TrimSpace(*client.Email) == "" {
		result.Warnings = append(result.Warnings, "письмо клиенту не отправлено: у клиента нет почты")
		return
	}

	owner, err := s.users.GetByID(ctx, p.OwnerID)
	if err != nil {
		result.Warnings = append(result.Warnings, "письмо клиенту не отправлено: "+err.Error())
		return
	}

	validUntil := ""
	if p.ValidUntil != nil {
		validUntil = p.ValidUntil.Format("02.01.2006")
	}

	s.sendMail(ctx, email.Message{
		Kind:      email.KindProposalSent,
		Recipient: *client.Email,
		Fields: map[string]string{
			"client_name": client.Name,
			"owner_name":  owner.Name,
			"title":       p.Content.Title,
			"link":        s.publicLink(p.Slug),
			"valid_until": validUntil,
		},
	}, result)
}

// emailAcceptance отправляет письма о принятии: владельцу и клиенту (счёт).
func (s *ProposalService) emailAcceptance(ctx context.Context, p *models.Proposal, invoice *models.Invoice, packageName string, result *LifecycleResult) {
	invoiceNumber := ""
	dueDate := ""
	if invoice != nil {
		invoiceNumber = invoice.Number
		if invoice.DueDate != nil {
			dueDate = invoice.DueDate.Format("02.01.2006")
		}
	}
	amount := fmt.Sprintf("%.2f", p.TotalAmount)

	if owner, err := s.users.GetByID(ctx, p.OwnerID); err == nil {
		s.sendMail(ctx, email.Message{
			Kind:      email.KindProposalAcceptedOwner,
			Recipient: owner.Email,
			Fields: map[string]string{
				"title":          p.Content.Title,
				"package":        packageName,
				"amount":         amount,
				"currency":       p.Currency,
				"invoice_number": invoiceNumber,
			},
		}, result)
	}

	if p.ClientID == nil || invoice == nil {
		return
	}
	client, err := s.clients.GetByID(ctx, *p.ClientID)
	if err != nil || client.Email == nil || strings.TrimSpace(*client.Email) == "" {
		return
	}

	s.sendMail(ctx, email.Message{
		Kind:      email.KindInvoiceClient,
		Recipient: *client.Email,
		Fields: map[string]string{
			"client_name":    client.Name,
			"title":          p.Content.Title,
			"invoice_number": invoiceNumber,
			"amount":         amount,
			"currency":       p.Currency,
			"due_date":       dueDate,
		},
	}, result)
}

// sendMail отправляет письмо и переводит сбой в предупреждение.
func (s *ProposalService) sendMail(ctx context.Context, msg email.Message, result *LifecycleResult) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("kind", msg.Kind).Warn("письмо не отправлено")
		result.Warnings = append(result.Warnings, fmt.Sprintf("письмо %s не отправлено: %v", msg.Kind, err))
	}
}

// publicLink собирает публичную ссылку на предложение.
func (s *ProposalService) publicLink(slug string) string {
	return s.publicAppURL + "/p/" + slug
}
