package hierarchy

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// SummaryMethod names the path a summary was actually produced by.
type SummaryMethod string

const (
	MethodExtractive  SummaryMethod = "extractive"
	MethodAbstractive SummaryMethod = "abstractive"
)

// ClusterSummary is the result of summarizing one cluster (spec.md §4.3).
type ClusterSummary struct {
	Summary       string
	Keywords      []string
	WordCount     int
	Method        SummaryMethod
	SourceNodeIDs map[string]struct{}
}

// SummarizationBackend is the single capability the abstractive mode
// delegates to: given text, a soft target length in words, and an opaque
// provider tag, return a summary or an error (spec.md §6.3). The nil backend
// is the "disabled" variant and always falls back to extractive.
type SummarizationBackend interface {
	Summarize(ctx context.Context, text string, targetLengthWords int, providerTag string) (string, error)
}

// Summarizer condenses a cluster's children into a representative text plus
// keywords, extractive by default with an optional abstractive backend.
type Summarizer struct {
	config  SummaryConfig
	backend SummarizationBackend
}

// NewSummarizer builds a Summarizer. backend may be nil, which collapses
// UseLLM to the extractive path regardless of configuration.
func NewSummarizer(config SummaryConfig, backend SummarizationBackend) *Summarizer {
	return &Summarizer{config: config, backend: backend}
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)
var nonWord = regexp.MustCompile(`[^\w]+`)

type taggedSentence struct {
	text       string
	nodeID     string
	globalIdx  int
}

// SummarizeCluster implements the contract of spec.md §4.3, including the
// empty-cluster and singleton edge cases.
func (s *Summarizer) SummarizeCluster(ctx context.Context, cluster DocumentCluster) (ClusterSummary, error) {
	sourceIDs := make(map[string]struct{}, len(cluster.Members))
	for _, m := range cluster.Members {
		sourceIDs[m.ID] = struct{}{}
	}

	if len(cluster.Members) == 0 {
		return ClusterSummary{
			Summary:       "",
			Keywords:      nil,
			WordCount:     0,
			Method:        MethodExtractive,
			SourceNodeIDs: sourceIDs,
		}, nil
	}

	if len(cluster.Members) == 1 {
		content := cluster.Members[0].Content
		return ClusterSummary{
			Summary:       content,
			Keywords:      s.keywordsFor(content),
			WordCount:     wordCount(content),
			Method:        MethodExtractive,
			SourceNodeIDs: sourceIDs,
		}, nil
	}

	if s.config.UseLLM && s.config.LLMProvider != "" && s.backend != nil {
		summary, err := s.summarizeAbstractive(ctx, cluster)
		if err == nil {
			return ClusterSummary{
				Summary:       summary,
				Keywords:      s.keywordsFor(summary),
				WordCount:     wordCount(summary),
				Method:        MethodAbstractive,
				SourceNodeIDs: sourceIDs,
			}, nil
		}
		// BackendFailure: fall through to extractive. Never surfaced.
	}

	summary := s.summarizeExtractive(cluster.Members)
	return ClusterSummary{
		Summary:       summary,
		Keywords:      s.keywordsFor(summary),
		WordCount:     wordCount(summary),
		Method:        MethodExtractive,
		SourceNodeIDs: sourceIDs,
	}, nil
}

// summarizeAbstractive concatenates child contents, truncates to the
// approximate token budget, and delegates to the configured backend.
func (s *Summarizer) summarizeAbstractive(ctx context.Context, cluster DocumentCluster) (string, error) {
	var builder strings.Builder
	for i, m := range cluster.Members {
		if i > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(m.Content)
	}

	text := builder.String()
	charBudget := s.config.MaxInputTokens * 4
	if len(text) > charBudget {
		text = text[:charBudget] + "..."
	}

	return s.backend.Summarize(ctx, text, s.config.TargetLength, s.config.LLMProvider)
}

// summarizeExtractive implements the TF-IDF sentence selection algorithm of
// spec.md §4.3 steps 1-5.
func (s *Summarizer) summarizeExtractive(members []*DocumentNode) string {
	sentences := extractSentences(members)
	if len(sentences) == 0 {
		return ""
	}

	tokenized := make([][]string, len(sentences))
	df := make(map[string]int)
	for i, sent := range sentences {
		terms := tokenize(sent.text)
		tokenized[i] = terms
		seen := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := float64(len(sentences))
	scores := make([]float64, len(sentences))
	for i, terms := range tokenized {
		tf := make(map[string]int)
		for _, t := range terms {
			tf[t]++
		}
		var score float64
		for t, count := range tf {
			d := df[t]
			if d < 1 {
				d = 1
			}
			score += float64(count) * math.Log(n/float64(d))
		}
		scores[i] = score
	}

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		si, sj := order[i], order[j]
		if scores[si] != scores[sj] {
			return scores[si] > scores[sj]
		}
		return sentences[si].globalIdx < sentences[sj].globalIdx
	})

	target := s.config.TargetLength
	limit := int(math.Ceil(1.2 * float64(target)))

	accepted := make(map[int]bool)
	wordTotal := 0
	for _, idx := range order {
		sentWords := len(strings.Fields(sentences[idx].text))
		if wordTotal+sentWords > limit {
			continue
		}
		accepted[idx] = true
		wordTotal += sentWords
		if wordTotal >= target {
			break
		}
	}

	selected := make([]int, 0, len(accepted))
	for idx := range accepted {
		selected = append(selected, idx)
	}
	sort.Slice(selected, func(i, j int) bool {
		return sentences[selected[i]].globalIdx < sentences[selected[j]].globalIdx
	})

	parts := make([]string, len(selected))
	for i, idx := range selected {
		parts[i] = sentences[idx].text
	}
	return strings.Join(parts, " ")
}

// extractSentences splits each member's content on {.!?}, trims, discards
// sentences of length <= 20 characters, and tags survivors with a global
// index assigned by iteration order.
func extractSentences(members []*DocumentNode) []taggedSentence {
	var out []taggedSentence
	idx := 0
	for _, m := range members {
		for _, raw := range sentenceSplit.Split(m.Content, -1) {
			text := strings.TrimSpace(raw)
			if len(text) <= 20 {
				continue
			}
			out = append(out, taggedSentence{text: text, nodeID: m.ID, globalIdx: idx})
			idx++
		}
	}
	return out
}

// tokenize lowercases, replaces non-word runs with spaces, splits on
// whitespace, and discards tokens of length <= 2.
func tokenize(text string) []string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	fields := strings.Fields(cleaned)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 2 {
			out = append(out, f)
		}
	}
	return out
}

// keywordsFor returns the top-5 terms by frequency in text, ties broken by
// first occurrence. Returns nil if keyword extraction is disabled.
func (s *Summarizer) keywordsFor(text string) []string {
	if !s.config.IncludeKeywords {
		return nil
	}

	terms := tokenize(text)
	if len(terms) == 0 {
		return nil
	}

	freq := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, t := range terms {
		freq[t]++
		if _, ok := firstSeen[t]; !ok {
			firstSeen[t] = i
		}
	}

	unique := make([]string, 0, len(freq))
	for t := range freq {
		unique = append(unique, t)
	}
	sort.Slice(unique, func(i, j int) bool {
		if freq[unique[i]] != freq[unique[j]] {
			return freq[unique[i]] > freq[unique[j]]
		}
		return firstSeen[unique[i]] < firstSeen[unique[j]]
	})

	if len(unique) > 5 {
		unique = unique[:5]
	}
	return unique
}

// wordCount is the number of whitespace-separated non-empty runs in text.
func wordCount(text string) int {
	return len(strings.Fields(text))
}
