package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESSender отправляет письма через AWS SES.
type SESSender struct {
	client *ses.Client
	from   string
}

// NewSESSender создаёт отправителя с SES клиентом для заданного региона.
func NewSESSender(ctx context.Context, region, from string) (*SESSender, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("email: не удалось загрузить AWS конфигурацию: %w", err)
	}

	return &SESSender{
		client: ses.NewFromConfig(cfg),
		from:   from,
	}, nil
}

// Send рендерит шаблон и отправляет письмо. Вызов ограничен таймаутом:
// медленный SES не должен задерживать ответ рабочего процесса.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if msg.Recipient == "" {
		return fmt.Errorf("email: пустой получатель (kind=%s)", msg.Kind)
	}

	subject, body, err := render(msg)
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = s.client.SendEmail(sendCtx, &ses.SendEmailInput{
		Source: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.Recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("email: отправка %s не удалась: %w", msg.Kind, err)
	}

	return nil
}
