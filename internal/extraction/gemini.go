// Package extraction reads expense data out of receipt and payment screenshots
// with the Gemini API.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/dafibh/gastify/gastify-backend/internal/config"
	"github.com/dafibh/gastify/gastify-backend/internal/domain"
)

const prompt = "Extrae el monto total, la fecha y una descripción del gasto de esta imagen de un recibo " +
	"o captura de pantalla de pago (Yape, Plin, etc.). La fecha debe estar en formato YYYY-MM-DD. " +
	"Si no puedes encontrar alguna información, déjala como nula."

// responseSchema constrains the model output to {amount, date, description}
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"amount": {
			Type:        genai.TypeNumber,
			Description: "El monto total del gasto en números. Por ejemplo, 15.50.",
		},
		"date": {
			Type:        genai.TypeString,
			Description: "La fecha del gasto en formato YYYY-MM-DD. Si el año no está presente, usa el año actual.",
		},
		"description": {
			Type:        genai.TypeString,
			Description: "Una breve descripción del gasto o el nombre del comercio. Por ejemplo, 'Café en Starbucks' o 'Pago Yape a Juan Perez'.",
		},
	},
	Required: []string{"amount", "date", "description"},
}

// generator is the part of the genai client used here
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiExtractor implements domain.Extractor
type GeminiExtractor struct {
	models generator
	model  string
}

var _ domain.Extractor = (*GeminiExtractor)(nil)

// NewGeminiExtractor creates an extractor backed by the Gemini API
func NewGeminiExtractor(ctx context.Context, cfg config.GeminiConfig) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiExtractor{models: client.Models, model: cfg.Model}, nil
}

// Extract sends the image and instruction to the model and parses its JSON answer
func (g *GeminiExtractor) Extract(ctx context.Context, image []byte, mimeType string) (domain.ExtractedData, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}

	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return domain.ExtractedData{}, fmt.Errorf("gemini request failed: %w", err)
	}

	return parseResponse(resp.Text())
}

type modelAnswer struct {
	Amount      *decimal.Decimal `json:"amount"`
	Date        *string          `json:"date"`
	Description *string          `json:"description"`
}

// parseResponse decodes the model answer. Zero amounts and empty strings become nil.
func parseResponse(text string) (domain.ExtractedData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExtractedData{}, fmt.Errorf("empty model response")
	}

	var answer modelAnswer
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return domain.ExtractedData{}, fmt.Errorf("invalid model response: %w", err)
	}

	var data domain.ExtractedData
	if answer.Amount != nil && !answer.Amount.IsZero() {
		data.Amount = answer.Amount
	}
	data.Date = nonEmpty(answer.Date)
	data.Description = nonEmpty(answer.Description)
	return data, nil
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
