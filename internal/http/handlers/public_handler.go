package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/dto"
	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/service"
)

// PublicHandler — клиентская сторона рабочего процесса: страница предложения
// по slug и решения принять/отклонить. Авторизации нет, slug — capability.
type PublicHandler struct {
	proposals *service.ProposalService
	cache     *service.CacheService
}

// NewPublicHandler создаёт хэндлер.
func NewPublicHandler(proposals *service.ProposalService, cache *service.CacheService) *PublicHandler {
	return &PublicHandler{proposals: proposals, cache: cache}
}

// View обрабатывает GET /api/public/proposals/:slug.
func (h *PublicHandler) View(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		common.RespondBadRequest(c, "slug обязателен")
		return
	}

	view, err := h.proposals.RecordView(c.Request.Context(), slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// Accept обрабатывает POST /api/public/proposals/:slug/accept.
func (h *PublicHandler) Accept(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		common.RespondBadRequest(c, "slug обязателен")
		return
	}

	// Пакет опционален: без него цена снимается с позиции «Standard».
	var req dto.AcceptProposalRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.proposals.Accept(c.Request.Context(), slug, req.Package)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(result.Proposal.OwnerID)

	// Наружу — только то, что нужно клиентской странице. Внутренние
	// идентификаторы и предупреждения сайд-эффектов не раскрываются.
	resp := gin.H{
		"status":       result.Proposal.Status,
		"total_amount": result.Proposal.TotalAmount,
		"currency":     result.Proposal.Currency,
	}
	if result.Invoice != nil {
		resp["invoice"] = gin.H{
			"number":   result.Invoice.Number,
			"total":    result.Invoice.Total,
			"currency": result.Invoice.Currency,
			"due_date": result.Invoice.DueDate,
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Reject обрабатывает POST /api/public/proposals/:slug/reject.
func (h *PublicHandler) Reject(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		common.RespondBadRequest(c, "slug обязателен")
		return
	}

	result, err := h.proposals.Reject(c.Request.Context(), slug)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(result.Proposal.OwnerID)
	c.JSON(http.StatusOK, gin.H{"status": result.Proposal.Status})
}
