// Package extract turns free-form text into dated historical works using a
// large-language-model API.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashureev/chrononote/internal/domain"
)

// ErrResponseInvalid reports a model response that is not the expected JSON.
var ErrResponseInvalid = errors.New("model response invalid")

// Extractor extracts historical works from text.
type Extractor interface {
	// Extract returns the dated works found in text. Items without a specific
	// year are dropped. An empty result is not an error.
	Extract(ctx context.Context, text string) ([]domain.ExtractedWork, error)
}

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config selects and configures a provider.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
}

// New builds the Extractor named by cfg.Provider.
func New(cfg Config) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderGemini, "":
		return NewGemini(GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case ProviderOpenAI:
		return NewOpenAI(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	default:
		return nil, fmt.Errorf("unsupported extraction provider %q", cfg.Provider)
	}
}

const systemPrompt = `You are a precise historical data extraction engine. Your task is to analyze text and extract ONLY historical references with specific years.

**STRICT RULES:**
1. Extract ONLY works, events, or historical references that have a SPECIFIC YEAR mentioned or strongly implied
2. Ignore any text that is not a historical reference (commentary, notes, personal thoughts, etc.)
3. For each item, extract:
   - title: The name of the work, event, or historical reference (cleaned and formatted)
   - author_or_source: The creator, author, or source if mentioned (null if not available)
   - year: The integer year (MUST be a valid year, not a century or range)
4. If an item mentions only a century or date range, ignore it unless you can determine a specific year
5. Return ONLY valid JSON in this exact structure:
   {
     "works": [
       {"title": "Example Work", "author_or_source": "Author Name", "year": 1984},
       {"title": "Another Event", "author_or_source": null, "year": 2001}
     ]
   }
6. If no valid historical references are found, return: {"works": []}

**OUTPUT FORMAT:** Return ONLY the JSON object. No explanations, no markdown formatting, no extra text.`

const maxOutputTokens = 8192

type responseEnvelope struct {
	Works []struct {
		Title          string  `json:"title"`
		AuthorOrSource *string `json:"author_or_source"`
		Year           *int    `json:"year"`
	} `json:"works"`
}

// ParseResponse decodes a model response into extracted works. Code fences
// around the JSON are tolerated; items with a null year or blank title are
// dropped.
func ParseResponse(raw string) ([]domain.ExtractedWork, error) {
	text := stripCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrResponseInvalid)
	}

	var envelope responseEnvelope
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v (response: %s)", ErrResponseInvalid, err, truncate(text, 200))
	}

	works := make([]domain.ExtractedWork, 0, len(envelope.Works))
	for _, item := range envelope.Works {
		title := strings.TrimSpace(item.Title)
		if item.Year == nil || title == "" {
			continue
		}
		works = append(works, domain.ExtractedWork{
			Title:          title,
			AuthorOrSource: domain.NormalizeAuthor(item.AuthorOrSource),
			Year:           *item.Year,
		})
	}
	return works, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl != -1 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
