package workflow

import (
	"errors"
	"fmt"
)

// Сигнальные ошибки рабочего процесса.
var (
	// ErrAlreadyResolved возвращается проигравшему из двух конкурентных
	// вызовов, пытавшихся разрешить одно и то же предложение.
	ErrAlreadyResolved = errors.New("предложение уже разрешено")

	// ErrExternalServiceDegraded возвращается, когда внешний сервис
	// (генерация контента, почта) недоступен или вернул мусор.
	ErrExternalServiceDegraded = errors.New("внешний сервис недоступен")
)

// QuotaExceededError возвращается, когда месячный лимит генераций исчерпан.
type QuotaExceededError struct {
	Limit int
	Used  int
	Plan  string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("лимит генераций исчерпан: %d из %d на тарифе %q", e.Used, e.Limit, e.Plan)
}

// InvalidTransitionError возвращается, когда для текущего статуса нет
// запрошенного ребра в таблице переходов.
type InvalidTransitionError struct {
	Expected []string
	Actual   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("недопустимый переход: ожидался статус %v, фактический %q", e.Expected, e.Actual)
}

// ValidationError возвращается, когда перед переходом не хватает
// обязательного содержимого.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError создаёт ошибку валидации с форматированием.
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsQuotaExceeded проверяет, является ли ошибка превышением квоты.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsInvalidTransition проверяет, является ли ошибка недопустимым переходом.
func IsInvalidTransition(err error) bool {
	var it *InvalidTransitionError
	return errors.As(err, &it)
}

// IsValidation проверяет, является ли ошибка ошибкой валидации.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
