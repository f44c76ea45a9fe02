package email

import (
	"context"
	"fmt"
)

// Виды писем рабочего процесса.
const (
	KindProposalSent          = "proposal_sent"
	KindProposalAcceptedOwner = "proposal_accepted_owner"
	KindInvoiceClient         = "invoice_client"
	KindProposalDeclinedOwner = "proposal_declined_owner"
)

// Message описывает письмо: вид шаблона, получатель и поля подстановки.
type Message struct {
	Kind      string
	Recipient string
	Fields    map[string]string
}

// Sender отправляет письма. Реализации возвращают ошибку строкой и никогда
// не паникуют: сбой доставки — мягкий сбой рабочего процесса, а не отказ
// операции, к которой письмо было привязано.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// template описывает тему и тело письма. Подстановки — через %s в порядке
// перечисленных полей.
type template struct {
	subject      string
	subjectField string
	body         string
	fields       []string
}

var templates = map[string]template{
	KindProposalSent: {
		subject:      "Новое предложение: %s",
		subjectField: "title",
		body:         "Здравствуйте, %s!\n\n%s подготовил для вас коммерческое предложение «%s».\nПосмотреть и ответить: %s\n\nПредложение действительно до %s.",
		fields:       []string{"client_name", "owner_name", "title", "link", "valid_until"},
	},
	KindProposalAcceptedOwner: {
		subject:      "Предложение принято: %s",
		subjectField: "title",
		body:         "Клиент принял предложение «%s» (пакет %s, сумма %s %s).\nСчёт создан автоматически: %s.",
		fields:       []string{"title", "package", "amount", "currency", "invoice_number"},
	},
	KindInvoiceClient: {
		subject:      "Счёт %s",
		subjectField: "invoice_number",
		body:         "Здравствуйте, %s!\n\nСпасибо, что приняли предложение «%s». Счёт %s на сумму %s %s, срок оплаты до %s.",
		fields:       []string{"client_name", "title", "invoice_number", "amount", "currency", "due_date"},
	},
	KindProposalDeclinedOwner: {
		subject:      "Предложение отклонено: %s",
		subjectField: "title",
		body:         "Клиент отклонил предложение «%s». Вы можете доработать его и отправить повторно.",
		fields:       []string{"title"},
	},
}

// render собирает тему и тело по виду шаблона.
func render(msg Message) (subject, body string, err error) {
	tpl, ok := templates[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("email: неизвестный вид письма %q", msg.Kind)
	}

	bodyArgs := make([]interface{}, 0, len(tpl.fields))
	for _, field := range tpl.fields {
		bodyArgs = append(bodyArgs, msg.Fields[field])
	}

	return fmt.Sprintf(tpl.subject, msg.Fields[tpl.subjectField]), fmt.Sprintf(tpl.body, bodyArgs...), nil
}

// NoopSender используется, когда почта не сконфигурирована: отправка
// считается неуспешной, но предсказуемо и без внешних вызовов.
type NoopSender struct{}

// Send всегда сообщает, что доставка не настроена.
func (NoopSender) Send(ctx context.Context, msg Message) error {
	return fmt.Errorf("email: отправка не сконфигурирована (kind=%s)", msg.Kind)
}
