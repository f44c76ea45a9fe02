package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proposalkit/backend/internal/models"
)

const validContentJSON = `{
	"title": "Корпоративный сайт",
	"summary": "Сайт с каталогом",
	"scope": ["Дизайн", "Вёрстка"],
	"packages": [
		{"name": "Basic", "price": 100},
		{"name": "Standard", "price": 200},
		{"name": "Premium", "price": 300}
	]
}`

func TestExtractJSON_Plain(t *testing.T) {
	data, err := extractJSON(validContentJSON)
	assert.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	text := "Вот предложение:\n```json\n" + validContentJSON + "\n```\nГотово."
	data, err := extractJSON(text)
	assert.NoError(t, err)

	var content models.ProposalContent
	assert.NoError(t, json.Unmarshal(data, &content))
	assert.Equal(t, "Корпоративный сайт", content.Title)
}

func TestExtractJSON_EmbeddedInProse(t *testing.T) {
	text := "Конечно! " + validContentJSON + " Надеюсь, подойдёт."
	data, err := extractJSON(text)
	assert.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestExtractJSON_Garbage(t *testing.T) {
	_, err := extractJSON("извините, не могу сгенерировать предложение")
	assert.Error(t, err)
}

func TestNormalizeContent_PadsToThreePackages(t *testing.T) {
	content := &models.ProposalContent{
		Title:    "Сайт",
		Packages: []models.Package{{Name: "Basic", Price: 100}},
	}

	require.NoError(t, normalizeContent(content))
	// Позиция «Standard» (индекс 1) должна существовать всегда.
	assert.Len(t, content.Packages, 3)
	assert.Equal(t, float64(100), content.Packages[1].Price)
}

func TestNormalizeContent_TrimsExtraPackages(t *testing.T) {
	content := &models.ProposalContent{
		Title: "Сайт",
		Packages: []models.Package{
			{Name: "A", Price: 1}, {Name: "B", Price: 2},
			{Name: "C", Price: 3}, {Name: "D", Price: 4},
		},
	}

	require.NoError(t, normalizeContent(content))
	assert.Len(t, content.Packages, 3)
}

func TestNormalizeContent_DefaultNamesAndPriceClamp(t *testing.T) {
	content := &models.ProposalContent{
		Title: " Сайт ",
		Packages: []models.Package{
			{Name: "  ", Price: -50},
			{Name: "Standard", Price: 200},
			{Name: "", Price: 300},
		},
	}

	require.NoError(t, normalizeContent(content))
	assert.Equal(t, "Сайт", content.Title)
	assert.Equal(t, "Basic", content.Packages[0].Name)
	assert.Equal(t, "Premium", content.Packages[2].Name)
	assert.Equal(t, float64(0), content.Packages[0].Price)
}

func TestNormalizeContent_MissingTitle(t *testing.T) {
	content := &models.ProposalContent{
		Packages: []models.Package{{Name: "Basic", Price: 100}},
	}
	assert.Error(t, normalizeContent(content))
}

func TestNormalizeContent_NoPackages(t *testing.T) {
	content := &models.ProposalContent{Title: "Сайт"}
	assert.Error(t, normalizeContent(content))
}

func completionResponse(content string) string {
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestClient_GenerateProposal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		fmt.Fprint(w, completionResponse("```json\n"+validContentJSON+"\n```"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "gpt-4o-mini", 5*time.Second)

	content, err := client.GenerateProposal(context.Background(), GenerationInput{
		ProjectType: "Веб-разработка",
		Description: "Нужен корпоративный сайт",
		ClientName:  "Пётр",
		Currency:    "RUB",
	})
	require.NoError(t, err)
	assert.Equal(t, "Корпоративный сайт", content.Title)
	assert.Len(t, content.Packages, 3)
}

func TestClient_GenerateProposal_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, completionResponse("не получилось, попробуйте ещё раз"))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)

	_, err := client.GenerateProposal(context.Background(), GenerationInput{Description: "x"})
	assert.Error(t, err)
}

func TestClient_GenerateProposal_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second)

	_, err := client.GenerateProposal(context.Background(), GenerationInput{Description: "x"})
	assert.Error(t, err)
}
