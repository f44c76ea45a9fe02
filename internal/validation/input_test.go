package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"USER@EXAMPLE.COM",
		"ivan.petrov+test@mail.ru",
		"  spaced@example.com  ",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"@example.com",
		"user@",
		"user@localhost",
		"юзер@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Иван"))
	assert.Error(t, ValidateName(""))
	assert.Error(t, ValidateName("  "))
	assert.Error(t, ValidateName("И"))
	assert.Error(t, ValidateName(strings.Repeat("а", MaxNameLength+1)))
}

func TestValidateCompany(t *testing.T) {
	assert.NoError(t, ValidateCompany(nil))

	empty := ""
	assert.NoError(t, ValidateCompany(&empty))

	ok := "ООО «Ромашка»"
	assert.NoError(t, ValidateCompany(&ok))

	long := strings.Repeat("а", MaxCompanyLength+1)
	assert.Error(t, ValidateCompany(&long))
}

func TestValidateProjectDescription(t *testing.T) {
	assert.Error(t, ValidateProjectDescription(""))
	assert.Error(t, ValidateProjectDescription("коротко"))
	assert.NoError(t, ValidateProjectDescription("Нужен корпоративный сайт с каталогом"))
	assert.Error(t, ValidateProjectDescription(strings.Repeat("а", MaxProjectDescriptionLength+1)))
}

func TestValidateCurrency(t *testing.T) {
	assert.NoError(t, ValidateCurrency(""))
	assert.NoError(t, ValidateCurrency("RUB"))
	assert.NoError(t, ValidateCurrency("usd"))
	assert.Error(t, ValidateCurrency("RU"))
	assert.Error(t, ValidateCurrency("RUBL"))
	assert.Error(t, ValidateCurrency("₽"))
}

func TestValidateBrandColor(t *testing.T) {
	assert.NoError(t, ValidateBrandColor(nil))

	empty := ""
	assert.NoError(t, ValidateBrandColor(&empty))

	ok := "#1A2b3C"
	assert.NoError(t, ValidateBrandColor(&ok))

	short := "#FFF"
	assert.Error(t, ValidateBrandColor(&short))

	noHash := "1A2B3C"
	assert.Error(t, ValidateBrandColor(&noHash))
}
