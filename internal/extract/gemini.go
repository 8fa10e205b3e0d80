package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ashureev/chrononote/internal/domain"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when GeminiConfig.Model is empty.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

// GeminiConfig configures the Gemini extractor.
type GeminiConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// Model optionally overrides DefaultGeminiModel.
	Model string
	// BaseURL optionally overrides the Gemini endpoint.
	BaseURL string
}

// Gemini extracts works with Google Gemini.
type Gemini struct {
	models geminiModelsClient
	model  string
}

type geminiModelsClient interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// NewGemini builds a Gemini extractor.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new gemini extractor: missing api_key")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if err := validateBaseURL(baseURL); err != nil {
		return nil, fmt.Errorf("new gemini extractor: %w", err)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new gemini client: %w", err)
	}
	if client == nil || client.Models == nil {
		return nil, fmt.Errorf("new gemini client: models client is nil")
	}

	return newGeminiWithClient(client.Models, cfg.Model), nil
}

func newGeminiWithClient(models geminiModelsClient, model string) *Gemini {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{models: models, model: model}
}

// Extract sends text to Gemini and parses the JSON reply.
func (g *Gemini) Extract(ctx context.Context, text string) ([]domain.ExtractedWork, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Temperature:      genai.Ptr[float32](0),
		TopP:             genai.Ptr[float32](0.95),
		TopK:             genai.Ptr[float32](40),
		MaxOutputTokens:  maxOutputTokens,
		ResponseMIMEType: "application/json",
	}
	contents := genai.Text("**TEXT TO ANALYZE:**\n" + text)

	resp, err := g.models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini generate content: %w: nil response", ErrResponseInvalid)
	}

	works, err := ParseResponse(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("gemini extraction: %w", err)
	}
	return works, nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse base_url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("parse base_url: must include scheme and host")
	}
	return nil
}
