package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/proposalkit/backend/internal/dto"
	"github.com/proposalkit/backend/internal/http/handlers/common"
	"github.com/proposalkit/backend/internal/service"
	"github.com/proposalkit/backend/internal/workflow"
)

// BillingHandler принимает вебхуки платёжного провайдера.
type BillingHandler struct {
	billing *service.BillingService
	secret  string
}

// NewBillingHandler создаёт хэндлер. secret — общий секрет подписи вебхука.
func NewBillingHandler(billing *service.BillingService, secret string) *BillingHandler {
	return &BillingHandler{billing: billing, secret: secret}
}

// Webhook обрабатывает POST /api/webhooks/billing.
// Тело читается целиком до парсинга: подпись считается от сырых байт.
func (h *BillingHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 64*1024))
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать тело запроса")
		return
	}

	if h.secret != "" && !h.verifySignature(body, c.GetHeader("X-Billing-Signature")) {
		common.RespondUnauthorized(c, "подпись вебхука невалидна")
		return
	}

	var req dto.BillingWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		common.RespondBadRequest(c, "некорректное тело вебхука")
		return
	}

	err = h.billing.HandleEvent(c.Request.Context(), service.WebhookEvent{
		Type:   req.Type,
		UserID: req.UserID,
		Plan:   req.Plan,
	})
	if err != nil {
		var validationErr *workflow.ValidationError
		if errors.As(err, &validationErr) {
			common.RespondBadRequest(c, validationErr.Error())
			return
		}
		_ = c.Error(err)
		return
	}

	// Провайдеру достаточно 200: и обработанные, и проигнорированные
	// события подтверждаются, чтобы не ловить ретраи.
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *BillingHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
