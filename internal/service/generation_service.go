package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/proposalkit/backend/internal/ai"
	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/models"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/repository/common"
	"github.com/proposalkit/backend/internal/workflow"
)

// ProposalGenerator описывает внешний генератор контента предложений.
type ProposalGenerator interface {
	GenerateProposal(ctx context.Context, input ai.GenerationInput) (*models.ProposalContent, error)
}

// GenerationUserRepository — доступ к владельцу для определения тарифа.
type GenerationUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// GenerationUsageRepository — месячные счётчики генераций.
type GenerationUsageRepository interface {
	CurrentCount(ctx context.Context, userID uuid.UUID, period string) (int, error)
	IncrementBelow(ctx context.Context, userID uuid.UUID, period string, limit int) (int, error)
}

// GenerationClientRepository — неявное создание клиентов по данным формы.
type GenerationClientRepository interface {
	GetOrCreate(ctx context.Context, ownerID uuid.UUID, name string, company, email *string) (*models.Client, error)
}

// GenerationProposalRepository — персист черновиков.
type GenerationProposalRepository interface {
	Create(ctx context.Context, p *models.Proposal) error
}

// GenerationService отвечает за генерацию предложений: проверку квоты,
// вызов внешней модели и сохранение черновика.
type GenerationService struct {
	users     GenerationUserRepository
	usage     GenerationUsageRepository
	clients   GenerationClientRepository
	proposals GenerationProposalRepository
	generator ProposalGenerator
	validity  time.Duration
	log       *logrus.Entry
}

// NewGenerationService создаёт сервис генерации. validity — срок действия
// предложения от момента создания черновика.
func NewGenerationService(
	users GenerationUserRepository,
	usage GenerationUsageRepository,
	clients GenerationClientRepository,
	proposals GenerationProposalRepository,
	generator ProposalGenerator,
	validity time.Duration,
) *GenerationService {
	if validity <= 0 {
		validity = 30 * 24 * time.Hour
	}
	return &GenerationService{
		users:     users,
		usage:     usage,
		clients:   clients,
		proposals: proposals,
		generator: generator,
		validity:  validity,
		log:       logger.WithComponent("generation_service"),
	}
}

// GenerateInput описывает запрос владельца на генерацию предложения.
type GenerateInput struct {
	ProjectType   string
	Description   string
	ClientName    string
	ClientCompany *string
	ClientEmail   *string
	Currency      string
	Language      string
}

// Generate выполняет полный цикл: квота -> модель -> клиент -> черновик.
//
// Порядок важен. Предварительная проверка квоты отсекает заведомо
// исчерпанных пользователей до дорогого вызова модели, но сама по себе
// гонки не закрывает — её закрывает условный инкремент после успешной
// генерации. Неуспешная генерация счётчик не трогает; проигравший гонку
// инкремента ничего не сохраняет.
func (s *GenerationService) Generate(ctx context.Context, ownerID uuid.UUID, input GenerateInput) (*models.Proposal, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, workflow.NewValidationError("описание проекта обязательно")
	}
	if strings.TrimSpace(input.ClientName) == "" {
		return nil, workflow.NewValidationError("имя клиента обязательно")
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "RUB"
	}

	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	limit := models.PlanGenerationLimit(user.Plan)
	period := models.UsagePeriod(time.Now())

	if !models.IsUnlimited(limit) {
		used, err := s.usage.CurrentCount(ctx, ownerID, period)
		if err != nil {
			return nil, err
		}
		if used >= limit {
			return nil, &workflow.QuotaExceededError{Limit: limit, Used: used, Plan: user.Plan}
		}
	}

	company := ""
	if input.ClientCompany != nil {
		company = *input.ClientCompany
	}

	content, err := s.generator.GenerateProposal(ctx, ai.GenerationInput{
		ProjectType:   input.ProjectType,
		Description:   input.Description,
		ClientName:    input.ClientName,
		ClientCompany: company,
		Currency:      currency,
		Language:      input.Language,
	})
	if err != nil {
		s.log.WithError(err).Warn("генерация контента не удалась")
		return nil, fmt.Errorf("%w: %v", workflow.ErrExternalServiceDegraded, err)
	}

	// Инкремент после генерации: за неудачную попытку квота не списывается.
	if _, err := s.usage.IncrementBelow(ctx, ownerID, period, limit); err != nil {
		if errors.Is(err, repository.ErrQuotaExhausted) {
			used, countErr := s.usage.CurrentCount(ctx, ownerID, period)
			if countErr != nil {
				used = limit
			}
			return nil, &workflow.QuotaExceededError{Limit: limit, Used: used, Plan: user.Plan}
		}
		return nil, err
	}

	client, err := s.clients.GetOrCreate(ctx, ownerID, input.ClientName, input.ClientCompany, input.ClientEmail)
	if err != nil {
		return nil, err
	}

	validUntil := time.Now().Add(s.validity)

	proposal := &models.Proposal{
		OwnerID:     ownerID,
		ClientID:    &client.ID,
		Status:      models.ProposalStatusDraft,
		Content:     *content,
		Currency:    currency,
		TotalAmount: content.DefaultPrice(),
		ValidUntil:  &validUntil,
	}

	if err := s.createWithSlug(ctx, proposal); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"proposal_id": proposal.ID,
		"owner_id":    ownerID,
		"period":      period,
	}).Info("черновик предложения создан")

	return proposal, nil
}

// QuotaStatus описывает текущее состояние месячной квоты владельца.
type QuotaStatus struct {
	Plan      string `json:"plan"`
	Limit     int    `json:"limit"`
	Used      int    `json:"used"`
	Unlimited bool   `json:"unlimited"`
	Period    string `json:"period"`
}

// Quota возвращает состояние квоты для дашборда.
func (s *GenerationService) Quota(ctx context.Context, ownerID uuid.UUID) (*QuotaStatus, error) {
	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	limit := models.PlanGenerationLimit(user.Plan)
	period := models.UsagePeriod(time.Now())

	used, err := s.usage.CurrentCount(ctx, ownerID, period)
	if err != nil {
		return nil, err
	}

	return &QuotaStatus{
		Plan:      user.Plan,
		Limit:     limit,
		Used:      used,
		Unlimited: models.IsUnlimited(limit),
		Period:    period,
	}, nil
}

// createWithSlug сохраняет черновик, перегенерируя slug при коллизии.
// Коллизия на 16 hex-символах — событие исчезающе редкое, но дешёвое
// в обработке.
func (s *GenerationService) createWithSlug(ctx context.Context, p *models.Proposal) error {
	for attempt := 0; attempt < 3; attempt++ {
		slug, err := newSlug()
		if err != nil {
			return fmt.Errorf("generation service: slug %w", err)
		}
		p.Slug = slug

		err = s.proposals.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrAlreadyExists) {
			return err
		}
	}

	return fmt.Errorf("generation service: не удалось подобрать уникальный slug")
}

// newSlug генерирует непредсказуемый публичный идентификатор предложения.
// Slug — это capability: знание ссылки равно праву её открыть, поэтому
// идентификатор криптослучайный, а не последовательный.
func newSlug() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
