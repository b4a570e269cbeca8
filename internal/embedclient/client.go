// Package embedclient provides an HTTP client for an external embedding
// service, adapted from the teacher's embedding service client. Unlike the
// teacher, which returns a nil vector and logs on a malformed response, this
// client rejects malformed embeddings at the boundary so the hierarchy
// package's dimensional-consistency invariant (spec.md §3.6) never sees bad
// input in the first place.
package embedclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dgonzap30/coursetree/internal/jsonx"
)

// Config configures the HTTP client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig matches the teacher's embedding service defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8090",
		Timeout: 30 * time.Second,
	}
}

// Client embeds document text via an external HTTP service.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

// New builds a Client. logger may be nil.
func New(config Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed requests one embedding vector per input text, in order, and
// validates every vector before returning: non-empty, finite components,
// and identical dimensionality across the whole batch. A response that
// fails any of these checks is an error, not a best-effort nil entry.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := jsonx.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("embedclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedclient: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedclient: embedding service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := jsonx.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("embedclient: parse response: %w", err)
	}

	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedclient: expected %d embeddings, got %d", len(texts), len(parsed.Embeddings))
	}

	dim := -1
	for i, vec := range parsed.Embeddings {
		if len(vec) == 0 {
			return nil, fmt.Errorf("embedclient: embedding %d is empty", i)
		}
		if dim == -1 {
			dim = len(vec)
		} else if len(vec) != dim {
			return nil, fmt.Errorf("embedclient: embedding %d has dimension %d, want %d", i, len(vec), dim)
		}
		for _, v := range vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("embedclient: embedding %d has a non-finite component", i)
			}
		}
	}

	c.logger.Debug("embedded batch", zap.Int("count", len(texts)), zap.Int("dim", dim))
	return parsed.Embeddings, nil
}
