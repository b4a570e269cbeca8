// Package llmbackend provides the abstractive summarization capability named
// in spec.md §6.3: given (text, targetLengthWords, providerTag), return a
// summary or an error. Adapted from the teacher's multi-provider LLM router,
// narrowed to the single capability the hierarchy summarizer needs.
package llmbackend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/jsonx"
)

// Provider identifies which backend implementation to route a summarize
// call to. It is the opaque "providerTag" the core summarizer threads
// through unexamined.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// Config holds connection details for every supported provider.
type Config struct {
	OpenAIKey      string
	AnthropicKey   string
	OllamaURL      string
	RequestTimeout time.Duration
}

// DefaultConfig reads provider credentials from the environment, matching
// the teacher's router.DefaultConfig idiom.
func DefaultConfig() Config {
	return Config{
		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		AnthropicKey:   strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
		OllamaURL:      getEnvOrDefault("OLLAMA_URL", "http://localhost:11434"),
		RequestTimeout: 60 * time.Second,
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Backend implements hierarchy.SummarizationBackend by routing to whichever
// of openai/anthropic/ollama the caller's providerTag names. It does not
// import the hierarchy package; it only satisfies the interface shape the
// summarizer expects, so this package stays usable standalone.
type Backend struct {
	config Config
	client *http.Client
	logger *zap.Logger
}

// New builds a Backend. logger may be nil.
func New(config Config, logger *zap.Logger) *Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backend{
		config: config,
		client: &http.Client{Timeout: config.RequestTimeout},
		logger: logger,
	}
}

// Summarize sends text to the provider named by providerTag and returns its
// summary. Any failure — missing credentials, a non-2xx response, a
// malformed body — is returned as an error; the caller (the core
// summarizer) is responsible for falling back to extractive.
func (b *Backend) Summarize(ctx context.Context, text string, targetLengthWords int, providerTag string) (string, error) {
	prompt := fmt.Sprintf("Summarize the following text in approximately %d words:\n\n%s", targetLengthWords, text)

	switch Provider(providerTag) {
	case ProviderOpenAI:
		return b.callOpenAI(ctx, prompt)
	case ProviderAnthropic:
		return b.callAnthropic(ctx, prompt)
	case ProviderOllama:
		return b.callOllama(ctx, prompt)
	default:
		return "", fmt.Errorf("llmbackend: unknown provider %q", providerTag)
	}
}

func (b *Backend) callOpenAI(ctx context.Context, prompt string) (string, error) {
	if b.config.OpenAIKey == "" {
		return "", fmt.Errorf("llmbackend: no OpenAI API key configured")
	}

	body := map[string]interface{}{
		"model": "gpt-4o-mini",
		"messages": []map[string]string{
			{"role": "system", "content": "You are a precise, concise summarization engine."},
			{"role": "user", "content": prompt},
		},
	}

	resp, err := b.post(ctx, "https://api.openai.com/v1/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + b.config.OpenAIKey,
		"Content-Type":  "application/json",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := jsonx.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("llmbackend: parse openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("llmbackend: openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (b *Backend) callAnthropic(ctx context.Context, prompt string) (string, error) {
	if b.config.AnthropicKey == "" {
		return "", fmt.Errorf("llmbackend: no Anthropic API key configured")
	}

	body := map[string]interface{}{
		"model":      "claude-3-haiku-20240307",
		"max_tokens": 1024,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	resp, err := b.post(ctx, "https://api.anthropic.com/v1/messages", body, map[string]string{
		"x-api-key":         b.config.AnthropicKey,
		"anthropic-version": "2023-06-01",
		"Content-Type":      "application/json",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := jsonx.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("llmbackend: parse anthropic response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("llmbackend: anthropic returned no content blocks")
	}
	return parsed.Content[0].Text, nil
}

func (b *Backend) callOllama(ctx context.Context, prompt string) (string, error) {
	body := map[string]interface{}{
		"model": "llama3.2",
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"stream": false,
	}

	resp, err := b.post(ctx, b.config.OllamaURL+"/api/chat", body, map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := jsonx.Unmarshal(resp, &parsed); err != nil {
		return "", fmt.Errorf("llmbackend: parse ollama response: %w", err)
	}
	return parsed.Message.Content, nil
}

func (b *Backend) post(ctx context.Context, url string, body map[string]interface{}, headers map[string]string) ([]byte, error) {
	payload, err := jsonx.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("llmbackend: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("llmbackend: build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llmbackend: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llmbackend: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		b.logger.Warn("backend returned non-200", zap.Int("status", resp.StatusCode), zap.String("url", url))
		return nil, fmt.Errorf("llmbackend: provider error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
