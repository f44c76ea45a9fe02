package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/proposalkit/backend/internal/models"
)

// GenerationInput описывает запрос на генерацию контента предложения.
type GenerationInput struct {
	ProjectType   string
	Description   string
	ClientName    string
	ClientCompany string
	Currency      string
	Language      string
}

const proposalSystemPrompt = `Ты — ассистент фрилансера, который готовит коммерческие предложения.
Ответь строго одним JSON объектом без пояснений, со схемой:
{"title": string, "summary": string, "scope": [string], "timeline": [{"phase": string, "duration": string, "details": string}], "packages": [{"name": string, "description": string, "price": number, "features": [string]}], "terms": string}
Пакетов ровно три: Basic, Standard, Premium — по возрастанию цены. Цены указывай числами в валюте клиента.`

// GenerateProposal генерирует структурированный контент предложения.
// Ответ модели парсится защитно: принимаем чистый JSON, markdown-блок или
// первый корректный JSON объект в тексте. Если распарсить не удалось,
// попытка генерации считается неуспешной — частичный контент не возвращается.
func (c *Client) GenerateProposal(ctx context.Context, input GenerationInput) (*models.ProposalContent, error) {
	lang := input.Language
	if lang == "" {
		lang = "русский"
	}

	userPrompt := fmt.Sprintf(
		"Тип проекта: %s\nОписание: %s\nКлиент: %s\nКомпания: %s\nВалюта: %s\nЯзык предложения: %s",
		input.ProjectType,
		input.Description,
		input.ClientName,
		input.ClientCompany,
		input.Currency,
		lang,
	)

	raw, err := c.chatCompletion(ctx, []map[string]string{
		{"role": "system", "content": proposalSystemPrompt},
		{"role": "user", "content": userPrompt},
	}, 3072, 0.7)
	if err != nil {
		return nil, err
	}

	data, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var content models.ProposalContent
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("ai: контент не соответствует схеме: %w", err)
	}

	if err := normalizeContent(&content); err != nil {
		return nil, err
	}

	return &content, nil
}

// normalizeContent доводит сгенерированный контент до инвариантов ядра:
// непустой заголовок и ровно три пакета с неотрицательными ценами.
func normalizeContent(content *models.ProposalContent) error {
	content.Title = strings.TrimSpace(content.Title)
	if content.Title == "" {
		return fmt.Errorf("ai: в контенте нет заголовка")
	}

	if len(content.Packages) == 0 {
		return fmt.Errorf("ai: в контенте нет пакетов")
	}

	// Модель иногда возвращает больше или меньше трёх пакетов.
	// Больше — обрезаем; меньше — дублируем последний, чтобы позиция
	// «Standard» (индекс 1) всегда существовала.
	if len(content.Packages) > 3 {
		content.Packages = content.Packages[:3]
	}
	for len(content.Packages) < 3 {
		last := content.Packages[len(content.Packages)-1]
		content.Packages = append(content.Packages, last)
	}

	for i := range content.Packages {
		content.Packages[i].Name = strings.TrimSpace(content.Packages[i].Name)
		if content.Packages[i].Name == "" {
			content.Packages[i].Name = defaultPackageNames[i]
		}
		if content.Packages[i].Price < 0 {
			content.Packages[i].Price = 0
		}
	}

	return nil
}

var defaultPackageNames = [3]string{"Basic", "Standard", "Premium"}
