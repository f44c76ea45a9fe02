package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength = 2
	MaxNameLength = 100

	MaxCompanyLength = 150

	MinProjectDescriptionLength = 10
	MaxProjectDescriptionLength = 5000

	MaxProjectTypeLength = 100
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateName проверяет отображаемое имя владельца.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("имя обязательно")
	}
	return ValidateLength("имя", strings.TrimSpace(name), MinNameLength, MaxNameLength)
}

// ValidateCompany проверяет название компании.
func ValidateCompany(company *string) error {
	if company == nil || *company == "" {
		return nil
	}
	return ValidateLength("компания", strings.TrimSpace(*company), 0, MaxCompanyLength)
}

// ValidateProjectDescription проверяет описание проекта для генерации.
func ValidateProjectDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("описание проекта обязательно")
	}
	return ValidateLength("описание проекта", strings.TrimSpace(description), MinProjectDescriptionLength, MaxProjectDescriptionLength)
}

// ValidateProjectType проверяет тип проекта.
func ValidateProjectType(projectType string) error {
	return ValidateLength("тип проекта", strings.TrimSpace(projectType), 0, MaxProjectTypeLength)
}

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateCurrency проверяет трёхбуквенный код валюты.
func ValidateCurrency(currency string) error {
	if currency == "" {
		return nil
	}
	if !currencyRegex.MatchString(strings.ToUpper(strings.TrimSpace(currency))) {
		return fmt.Errorf("валюта должна быть трёхбуквенным кодом (например, RUB)")
	}
	return nil
}

var brandColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateBrandColor проверяет цвет бренда в формате #RRGGBB.
func ValidateBrandColor(color *string) error {
	if color == nil || *color == "" {
		return nil
	}
	if !brandColorRegex.MatchString(strings.TrimSpace(*color)) {
		return fmt.Errorf("цвет бренда должен быть в формате #RRGGBB")
	}
	return nil
}
