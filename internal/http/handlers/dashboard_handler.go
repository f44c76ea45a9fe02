package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/service"
)

// DashboardHandler — сводка воронки владельца.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler создаёт хэндлер.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Summary обрабатывает GET /api/dashboard.
func (h *DashboardHandler) Summary(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	summary, err := h.dashboard.Summary(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
