package hierarchy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clusterOf(members ...*DocumentNode) DocumentCluster {
	vecs := make([][]float64, len(members))
	for i, m := range members {
		vecs[i] = m.Embedding
	}
	var centroid []float64
	var cohesion float64
	if len(vecs) > 0 {
		centroid = Centroid(vecs)
		cohesion, _ = Cohesion(vecs)
	}
	return DocumentCluster{Members: members, Centroid: centroid, Cohesion: cohesion}
}

func TestSummarizeClusterEmptyCluster(t *testing.T) {
	s := NewSummarizer(DefaultSummaryConfig(), nil)
	summary, err := s.SummarizeCluster(context.Background(), DocumentCluster{})
	require.NoError(t, err)
	assert.Equal(t, "", summary.Summary)
	assert.Equal(t, MethodExtractive, summary.Method)
}

func TestSummarizeClusterSingletonIsVerbatim(t *testing.T) {
	s := NewSummarizer(DefaultSummaryConfig(), nil)
	node := leafNode("a", []float64{1, 0})
	node.Content = "The only document in this cluster, reproduced exactly as written."

	summary, err := s.SummarizeCluster(context.Background(), clusterOf(node))
	require.NoError(t, err)
	assert.Equal(t, node.Content, summary.Summary)
	assert.Equal(t, MethodExtractive, summary.Method)
}

type stubBackend struct {
	result string
	err    error
	calls  int
}

func (b *stubBackend) Summarize(ctx context.Context, text string, targetLengthWords int, providerTag string) (string, error) {
	b.calls++
	if b.err != nil {
		return "", b.err
	}
	return b.result, nil
}

func TestSummarizeClusterAbstractiveSuccess(t *testing.T) {
	cfg := DefaultSummaryConfig()
	cfg.UseLLM = true
	cfg.LLMProvider = "openai"
	backend := &stubBackend{result: "an abstractive summary"}

	s := NewSummarizer(cfg, backend)
	a := leafNode("a", []float64{1, 0})
	b := leafNode("b", []float64{0.9, 0.1})
	summary, err := s.SummarizeCluster(context.Background(), clusterOf(a, b))

	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, "an abstractive summary", summary.Summary)
	assert.Equal(t, MethodAbstractive, summary.Method)
}

func TestSummarizeClusterAbstractiveFailureFallsBackToExtractive(t *testing.T) {
	cfg := DefaultSummaryConfig()
	cfg.UseLLM = true
	cfg.LLMProvider = "openai"
	backend := &stubBackend{err: errors.New("backend unreachable")}

	s := NewSummarizer(cfg, backend)
	a := leafNode("a", []float64{1, 0})
	a.Content = "This is a long enough sentence to survive the extractor's length filter."
	b := leafNode("b", []float64{0.9, 0.1})
	b.Content = "This is another long enough sentence that should also survive filtering."

	summary, err := s.SummarizeCluster(context.Background(), clusterOf(a, b))

	require.NoError(t, err, "backend failure must never surface as an error")
	assert.Equal(t, 1, backend.calls)
	assert.Equal(t, MethodExtractive, summary.Method)
	assert.NotEmpty(t, summary.Summary)
}

func TestSummarizeExtractiveRespectsWordCountBound(t *testing.T) {
	cfg := DefaultSummaryConfig()
	cfg.TargetLength = 10

	members := []*DocumentNode{
		leafNode("a", []float64{1, 0}),
		leafNode("b", []float64{0.9, 0.1}),
	}
	members[0].Content = strings.Repeat("word ", 8) + "sentence that is long enough to count. " +
		strings.Repeat("extra ", 20) + "padding sentence that should not all be needed."
	members[1].Content = "Second document short sentence here for good measure overall."

	s := NewSummarizer(cfg, nil)
	out := s.summarizeExtractive(members)

	limit := int(1.2 * float64(cfg.TargetLength))
	words := len(strings.Fields(out))
	assert.LessOrEqual(t, words, limit, "selection must never exceed 1.2 times the target word count")
}

func TestSummarizeExtractiveIsDeterministic(t *testing.T) {
	cfg := DefaultSummaryConfig()
	members := []*DocumentNode{
		leafNode("a", []float64{1, 0}),
		leafNode("b", []float64{0.9, 0.1}),
	}
	members[0].Content = "First sentence about clustering algorithms and cosine similarity metrics. Second sentence about something else entirely different."
	members[1].Content = "Third sentence discussing clustering algorithms again in more detail here."

	s := NewSummarizer(cfg, nil)
	first := s.summarizeExtractive(members)
	second := s.summarizeExtractive(members)
	assert.Equal(t, first, second)
}

func TestKeywordsForTopFiveByFrequency(t *testing.T) {
	s := NewSummarizer(DefaultSummaryConfig(), nil)
	text := "clustering clustering clustering similarity similarity threshold threshold threshold threshold document"
	keywords := s.keywordsFor(text)
	require.NotEmpty(t, keywords)
	assert.Equal(t, "threshold", keywords[0])
	assert.LessOrEqual(t, len(keywords), 5)
}

func TestKeywordsForDisabled(t *testing.T) {
	cfg := DefaultSummaryConfig()
	cfg.IncludeKeywords = false
	s := NewSummarizer(cfg, nil)
	assert.Nil(t, s.keywordsFor("clustering similarity threshold document"))
}
