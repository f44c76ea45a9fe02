package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/proposalkit/backend/internal/logger"
	"github.com/proposalkit/backend/internal/repository"
	"github.com/proposalkit/backend/internal/workflow"
)

// ErrorHandler обрабатывает ошибки централизованно: проецирует таксономию
// рабочего процесса на HTTP статусы и маскирует внутренние ошибки.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode, message := mapError(err)
		c.JSON(statusCode, gin.H{"error": message})
	}
}

// mapError проецирует ошибку на статус и сообщение для клиента.
func mapError(err error) (int, string) {
	var quotaErr *workflow.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return http.StatusForbidden, quotaErr.Error()
	}

	var transitionErr *workflow.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusConflict, transitionErr.Error()
	}

	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}

	switch {
	case errors.Is(err, workflow.ErrAlreadyResolved):
		return http.StatusConflict, "предложение уже разрешено"
	case errors.Is(err, workflow.ErrExternalServiceDegraded):
		return http.StatusBadGateway, "внешний сервис временно недоступен, попробуйте позже"
	case errors.Is(err, repository.ErrProposalNotFound):
		return http.StatusNotFound, "предложение не найдено"
	case errors.Is(err, repository.ErrProposalLocked):
		return http.StatusConflict, "контент предложения заморожен в текущем статусе"
	case errors.Is(err, repository.ErrInvoiceNotFound):
		return http.StatusNotFound, "счёт не найден"
	case errors.Is(err, repository.ErrClientNotFound):
		return http.StatusNotFound, "клиент не найден"
	case errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "пользователь не найден"
	case errors.Is(err, repository.ErrEmailTaken):
		return http.StatusConflict, "почта уже зарегистрирована"
	}

	// Понятные прикладные сообщения пропускаем как есть, внутренние маскируем.
	errStr := err.Error()
	if errStr != "" && !containsInternalKeywords(errStr) {
		statusCode := http.StatusInternalServerError
		if contains(errStr, "неверный") || contains(errStr, "невалид") || contains(errStr, "обязател") {
			statusCode = http.StatusBadRequest
		} else if contains(errStr, "нет прав") || contains(errStr, "не авторизован") {
			statusCode = http.StatusForbidden
		}
		if statusCode != http.StatusInternalServerError {
			return statusCode, errStr
		}
	}

	return http.StatusInternalServerError, "внутренняя ошибка сервера"
}

// containsInternalKeywords проверяет, содержит ли строка ключевые слова внутренних ошибок.
func containsInternalKeywords(s string) bool {
	keywords := []string{
		"sql:",
		"database",
		"connection",
		"timeout",
		"internal",
		"panic",
		"runtime",
	}

	for _, keyword := range keywords {
		if contains(s, keyword) {
			return true
		}
	}
	return false
}

// contains проверяет, содержит ли строка подстроку (case-insensitive).
func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
