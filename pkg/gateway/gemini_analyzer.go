package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"outfit-stylist-be/internal/dto"
	"outfit-stylist-be/internal/entity"

	"google.golang.org/genai"
)

// GeminiAnalyzer asks a Gemini model for the analysis JSON directly.
type GeminiAnalyzer struct {
	client *genai.Client
	model  string
}

var _ Analyzer = &GeminiAnalyzer{}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiAnalyzer{client: client, model: model}, nil
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, oc entity.OutfitContext) (*dto.AnalysisPayload, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(buildAnalysisPrompt(oc)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var payload dto.AnalysisPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("unmarshal gemini analysis: %w", err)
	}
	if payload.Timestamp.IsZero() {
		payload.Timestamp = time.Now()
	}
	return &payload, nil
}

func buildAnalysisPrompt(oc entity.OutfitContext) string {
	var sb strings.Builder

	sb.WriteString("You are a fashion stylist. Describe the outfit made of the garment photos below.\n")
	sb.WriteString(fmt.Sprintf("Season: %s. Formality: %s.\n", oc.Session.Season, oc.Session.Formality))
	sb.WriteString("Photos by slot:\n")
	for _, slot := range oc.Images.Populated() {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", slot, oc.Images.URL(slot)))
	}
	sb.WriteString("Respond with one JSON object and nothing else, using exactly these keys: ")
	sb.WriteString("top, topLayer, bottom, shoes (short garment descriptions, omit slots without a photo), ")
	sb.WriteString("accessories (array), aesthetic (array of 3 style tags), colors (object from slot name to color name, only slots with a photo), ")
	sb.WriteString("ai_description, accessories_description, accessories_tags (array), season, formality, confidence (0 to 1).\n")

	return sb.String()
}
