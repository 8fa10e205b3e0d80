// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	FrontendURL   string
	DBPath        string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	CORSOrigins   []string
	UploadMaxSize int64 // bytes
	Cookie        CookieConfig
	AI            AIConfig
}

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AIConfig selects the extraction provider.
type AIConfig struct {
	Provider       string // "gemini" or "openai"
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	ExtractTimeout time.Duration
}

// APIKey returns the key for the selected provider.
func (a AIConfig) APIKey() string {
	if a.Provider == "openai" {
		return a.OpenAIAPIKey
	}
	return a.GeminiAPIKey
}

// Model returns the model for the selected provider.
func (a AIConfig) Model() string {
	if a.Provider == "openai" {
		return a.OpenAIModel
	}
	return a.GeminiModel
}

// BaseURL returns the endpoint override for the selected provider.
func (a AIConfig) BaseURL() string {
	if a.Provider == "openai" {
		return a.OpenAIBaseURL
	}
	return ""
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8000"),
		FrontendURL:   getEnv("FRONTEND_URL", ""),
		DBPath:        getEnv("DB_PATH", "./data/chrononote.db"),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_SECONDS", 7200)) * time.Second,
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		CORSOrigins:   splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		UploadMaxSize: int64(getEnvInt("UPLOAD_MAX_SIZE_KB", 50)) * 1024,
		Cookie: CookieConfig{
			Name:   getEnv("SESSION_COOKIE_NAME", "chrononote_session"),
			Secure: getEnvBool("SESSION_COOKIE_SECURE", false),
		},
		AI: AIConfig{
			Provider:       strings.ToLower(strings.TrimSpace(getEnv("AI_PROVIDER", "gemini"))),
			GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
			GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
			OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			ExtractTimeout: getEnvDuration("EXTRACT_TIMEOUT", 60*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_SECONDS must be > 0")
	}
	if c.UploadMaxSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE_KB must be > 0")
	}
	if c.Cookie.Name == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("AI_PROVIDER must be gemini or openai, got %q", c.AI.Provider)
	}
	if c.AI.ExtractTimeout <= 0 {
		return fmt.Errorf("EXTRACT_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
