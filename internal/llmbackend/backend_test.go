package llmbackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeUnknownProviderErrors(t *testing.T) {
	b := New(Config{}, nil)
	_, err := b.Summarize(context.Background(), "text", 100, "not-a-real-provider")
	require.Error(t, err)
}

func TestSummarizeOpenAIMissingKeyErrors(t *testing.T) {
	b := New(Config{}, nil)
	_, err := b.Summarize(context.Background(), "text", 100, string(ProviderOpenAI))
	require.Error(t, err)
}

func TestSummarizeOllamaSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":{"content":"a generated summary"}}`))
	}))
	defer server.Close()

	b := New(Config{OllamaURL: server.URL}, nil)
	out, err := b.Summarize(context.Background(), "long text to summarize", 50, string(ProviderOllama))
	require.NoError(t, err)
	assert.Equal(t, "a generated summary", out)
}

func TestSummarizeOllamaNonOKStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	b := New(Config{OllamaURL: server.URL}, nil)
	_, err := b.Summarize(context.Background(), "text", 50, string(ProviderOllama))
	require.Error(t, err)
}
