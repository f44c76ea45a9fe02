package email

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_ProposalSent(t *testing.T) {
	subject, body, err := render(Message{
		Kind:      KindProposalSent,
		Recipient: "client@example.com",
		Fields: map[string]string{
			"client_name": "Пётр",
			"owner_name":  "Иван",
			"title":       "Сайт под ключ",
			"link":        "https://app.example.com/p/a1b2c3d4",
			"valid_until": "27.09.2026",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Новое предложение: Сайт под ключ", subject)
	assert.Contains(t, body, "Пётр")
	assert.Contains(t, body, "https://app.example.com/p/a1b2c3d4")
	assert.Contains(t, body, "27.09.2026")
}

func TestRender_InvoiceSubjectUsesNumber(t *testing.T) {
	subject, body, err := render(Message{
		Kind: KindInvoiceClient,
		Fields: map[string]string{
			"client_name":    "Пётр",
			"title":          "Сайт под ключ",
			"invoice_number": "INV-20260828-AB12",
			"amount":         "300.00",
			"currency":       "RUB",
			"due_date":       "11.09.2026",
		},
	})
	assert.NoError(t, err)
	assert.Equal(t, "Счёт INV-20260828-AB12", subject)
	assert.Contains(t, body, "300.00 RUB")
}

func TestRender_UnknownKind(t *testing.T) {
	_, _, err := render(Message{Kind: "password_reset"})
	assert.Error(t, err)
}

func TestNoopSender(t *testing.T) {
	err := NoopSender{}.Send(context.Background(), Message{Kind: KindProposalSent})
	assert.Error(t, err)
}
