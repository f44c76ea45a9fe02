package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/models"
	"github.com/sirupsen/logrus"
)

// DashboardProposalRepository — агрегаты по предложениям владельца.
type DashboardProposalRepository interface {
	CountByStatus(ctx context.Context, ownerID uuid.UUID) (map[string]int, error)
	ExpireStale(ctx context.Context, ownerID *uuid.UUID) (int64, error)
}

// DashboardInvoiceRepository — агрегаты по счетам владельца.
type DashboardInvoiceRepository interface {
	OutstandingTotal(ctx context.Context, ownerID uuid.UUID) (float64, error)
}

// DashboardSummary — сводка воронки владельца.
type DashboardSummary struct {
	StatusCounts   map[string]int `json:"status_counts"`
	TotalProposals int            `json:"total_proposals"`
	AcceptanceRate float64        `json:"acceptance_rate"`
	Outstanding    float64        `json:"outstanding_total"`
	Quota          *QuotaStatus   `json:"quota"`
}

// DashboardService собирает сводку владельца. Перед сборкой прогоняется
// ленивая просрочка: сводка не должна показывать sent для давно истёкших
// предложений. Результат кэшируется на короткий TTL.
type DashboardService struct {
	proposals  DashboardProposalRepository
	invoices   DashboardInvoiceRepository
	generation *GenerationService
	cache      *CacheService
	cacheTTL   time.Duration
	log        *logrus.Entry
}

// NewDashboardService создаёт сервис дашборда.
func NewDashboardService(
	proposals DashboardProposalRepository,
	invoices DashboardInvoiceRepository,
	generation *GenerationService,
	cache *CacheService,
) *DashboardService {
	return &DashboardService{
		proposals:  proposals,
		invoices:   invoices,
		generation: generation,
		cache:      cache,
		cacheTTL:   30 * time.Second,
		log:        logger.WithComponent("dashboard_service"),
	}
}

// Summary возвращает сводку владельца.
func (s *DashboardService) Summary(ctx context.Context, ownerID uuid.UUID) (*DashboardSummary, error) {
	// Просрочка закрывается до чтения агрегатов; сбой прогона сводку
	// не блокирует.
	if expired, err := s.proposals.ExpireStale(ctx, &ownerID); err != nil {
		s.log.WithError(err).Warn("прогон просрочки перед сводкой не удался")
	} else if expired > 0 {
		s.cache.InvalidateOwnerCache(ownerID)
	}

	value, err := s.cache.GetOrSet(ctx, DashboardCacheKey(ownerID), s.cacheTTL, func() (interface{}, error) {
		return s.buildSummary(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}

	summary, ok := value.(*DashboardSummary)
	if !ok {
		// Чужое значение под нашим ключом — пересобираем без кэша.
		return s.buildSummary(ctx, ownerID)
	}

	return summary, nil
}

func (s *DashboardService) buildSummary(ctx context.Context, ownerID uuid.UUID) (*DashboardSummary, error) {
	counts, err := s.proposals.CountByStatus(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, cnt := range counts {
		total += cnt
	}

	// Доля принятых среди разрешённых: draft и in-flight статусы в
	// знаменатель не входят.
	resolved := counts[models.ProposalStatusAccepted] +
		counts[models.ProposalStatusRejected] +
		counts[models.ProposalStatusExpired]
	rate := 0.0
	if resolved > 0 {
		rate = float64(counts[models.ProposalStatusAccepted]) / float64(resolved)
	}

	outstanding, err := s.invoices.OutstandingTotal(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	quota, err := s.generation.Quota(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &DashboardSummary{
		StatusCounts:   counts,
		TotalProposals: total,
		AcceptanceRate: rate,
		Outstanding:    outstanding,
		Quota:          quota,
	}, nil
}
