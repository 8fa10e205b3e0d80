package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/chrononote/internal/domain"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
)

// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIConfig configures the OpenAI extractor.
type OpenAIConfig struct {
	// APIKey is the credential used to authenticate requests.
	APIKey string
	// Model optionally overrides DefaultOpenAIModel.
	Model string
	// BaseURL optionally overrides the OpenAI endpoint.
	BaseURL string
}

// OpenAI extracts works with the OpenAI Responses API.
type OpenAI struct {
	responses openAIResponsesClient
	model     string
}

type openAIResponsesClient interface {
	New(ctx context.Context, body responses.ResponseNewParams, opts ...option.RequestOption) (*responses.Response, error)
}

// NewOpenAI builds an OpenAI extractor.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("new openai extractor: missing api_key")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if err := validateBaseURL(baseURL); err != nil {
		return nil, fmt.Errorf("new openai extractor: %w", err)
	}

	options := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(options...)

	return newOpenAIWithClient(&client.Responses, cfg.Model), nil
}

func newOpenAIWithClient(client openAIResponsesClient, model string) *OpenAI {
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{responses: client, model: model}
}

// Extract sends text to OpenAI and parses the JSON reply.
func (o *OpenAI) Extract(ctx context.Context, text string) ([]domain.ExtractedWork, error) {
	params := responses.ResponseNewParams{
		Model:        o.model,
		Instructions: openai.String(systemPrompt),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String("**TEXT TO ANALYZE:**\n" + text),
		},
		MaxOutputTokens: openai.Int(maxOutputTokens),
	}

	resp, err := o.responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai create response: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("openai create response: %w: nil response", ErrResponseInvalid)
	}

	works, err := ParseResponse(resp.OutputText())
	if err != nil {
		return nil, fmt.Errorf("openai extraction: %w", err)
	}
	return works, nil
}
