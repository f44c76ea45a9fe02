package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/dto"
	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/service"
	"github.com/proposalkit/backend/internal/validation"
)

// ProposalHandler — HTTP слой операций владельца над предложениями.
type ProposalHandler struct {
	proposals  *service.ProposalService
	generation *service.GenerationService
	cache      *service.CacheService
}

// NewProposalHandler создаёт хэндлер.
func NewProposalHandler(proposals *service.ProposalService, generation *service.GenerationService, cache *service.CacheService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals, generation: generation, cache: cache}
}

// Generate обрабатывает POST /api/proposals/generate.
func (h *ProposalHandler) Generate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.GenerateProposalRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := validation.ValidateProjectDescription(req.Description); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateProjectType(req.ProjectType); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateCurrency(req.Currency); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.generation.Generate(c.Request.Context(), userID, service.GenerateInput{
		ProjectType:   req.ProjectType,
		Description:   req.Description,
		ClientName:    req.ClientName,
		ClientCompany: req.ClientCompany,
		ClientEmail:   req.ClientEmail,
		Currency:      req.Currency,
		Language:      req.Language,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.JSON(http.StatusCreated, proposal)
}

// List обрабатывает GET /api/proposals. Перед выдачей списка прогоняется
// ленивая просрочка владельца: список не должен показывать sent для давно
// истёкших предложений.
func (h *ProposalHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	if expired, err := h.proposals.Sweep(c.Request.Context(), &userID); err == nil && expired > 0 {
		h.cache.InvalidateOwnerCache(userID)
	}

	limit, offset := common.GetPagination(c)
	proposals, err := h.proposals.List(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Get обрабатывает GET /api/proposals/:id.
func (h *ProposalHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Get(c.Request.Context(), proposalID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, proposal)
}

// Update обрабатывает PUT /api/proposals/:id.
func (h *ProposalHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateProposalRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	if err := validation.ValidateCurrency(req.Currency); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.UpdateContent(c.Request.Context(), proposalID, userID, req.Content, req.Currency, req.ValidUntil)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.JSON(http.StatusOK, proposal)
}

// Send обрабатывает POST /api/proposals/:id/send и /resend.
func (h *ProposalHandler) Send(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.proposals.Send(c.Request.Context(), proposalID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.JSON(http.StatusOK, result)
}

// Duplicate обрабатывает POST /api/proposals/:id/duplicate.
func (h *ProposalHandler) Duplicate(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.Duplicate(c.Request.Context(), proposalID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.JSON(http.StatusCreated, proposal)
}

// Delete обрабатывает DELETE /api/proposals/:id.
func (h *ProposalHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	proposalID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.proposals.Delete(c.Request.Context(), proposalID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.Status(http.StatusNoContent)
}

// Quota обрабатывает GET /api/proposals/quota.
func (h *ProposalHandler) Quota(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	quota, err := h.generation.Quota(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, quota)
}
