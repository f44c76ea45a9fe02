package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/dto"
	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/service"
)

// InvoiceHandler — HTTP слой счетов владельца.
type InvoiceHandler struct {
	invoices *service.InvoiceService
	cache    *service.CacheService
}

// NewInvoiceHandler создаёт хэндлер.
func NewInvoiceHandler(invoices *service.InvoiceService, cache *service.CacheService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, cache: cache}
}

// List обрабатывает GET /api/invoices.
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	invoices, err := h.invoices.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

// Get обрабатывает GET /api/invoices/:id.
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), invoiceID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, invoice)
}

// UpdateStatus обрабатывает PUT /api/invoices/:id/status.
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	invoiceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateInvoiceStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoices.UpdateStatus(c.Request.Context(), invoiceID, userID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.cache.InvalidateOwnerCache(userID)
	c.JSON(http.StatusOK, invoice)
}
