// Package rag implements the RAGEngine: retrieval from the vector
// store, context-pack assembly, provider-agnostic generation, and a
// calibrated confidence score. Grounded on the teacher's
// internal/vectordb/search.go (FormatResults's per-result rendering
// style) and cmd/query.go (the filter/search/format flow), generalized
// into the single query/similar contract spec.md §4.7 specifies.
package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/ziadkadry99/repowiki/internal/generator"
	"github.com/ziadkadry99/repowiki/internal/logging"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
)

var log = logging.New("rag")

const (
	defaultMaxResults          = 5
	defaultSimilarityThreshold = 0.3
	defaultTemperature         = 0.7
	defaultMaxTokens           = 2000
)

// noInformationAnswer is returned verbatim when retrieval comes back
// empty, per spec.md §4.7 step 3.
const noInformationAnswer = "I don't have enough information in the indexed project to answer that question."

// generationFailurePrefix marks the deterministic fallback answer used
// when the Generator call itself fails (spec.md §4.7's "Generation
// failure recovery").
const generationFailurePrefix = "The answer could not be generated; showing the most relevant excerpts instead:\n\n"

// Query is the input to Engine.Query.
type Query struct {
	Question            string
	Context             string
	MaxResults          int
	SimilarityThreshold float32
	Temperature         float64
}

// Source is one retrieved document surfaced alongside an answer.
type Source struct {
	FilePath   string
	LineStart  int
	LineEnd    int
	Similarity float32
}

// Metadata records the generation parameters and cost estimate for one query.
type Metadata struct {
	Model           string
	Temperature     float64
	MaxTokens       int
	RetrievedChunks int
	EstimatedTokens int
}

// Result is the outcome of Engine.Query.
type Result struct {
	Answer         string
	Sources        []Source
	Confidence     float64
	ProcessingTime time.Duration
	Metadata       Metadata
}

// SimilarMatch is one entry of Engine.Similar's result set.
type SimilarMatch struct {
	Document   vectorstore.Document
	Similarity float32
}

// Engine orchestrates retrieval, context assembly, and generation.
type Engine struct {
	store vectorstore.Store
	gen   generator.Provider
	model string
}

// New builds a RAGEngine over an existing, already-populated store.
func New(store vectorstore.Store, gen generator.Provider, model string) *Engine {
	return &Engine{store: store, gen: gen, model: model}
}

// Query runs the full retrieve -> context-pack -> generate -> confidence
// pipeline described in spec.md §4.7.
func (e *Engine) Query(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()

	maxResults := q.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	temperature := q.Temperature
	if temperature == 0 {
		temperature = defaultTemperature
	}
	threshold := q.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}

	resp, err := e.store.Search(ctx, q.Question, maxResults, nil)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	results := filterByThreshold(resp.Results, threshold)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) == 0 {
		return &Result{
			Answer:         noInformationAnswer,
			Confidence:     0,
			ProcessingTime: time.Since(start),
			Metadata: Metadata{
				Model:       e.model,
				Temperature: temperature,
				MaxTokens:   defaultMaxTokens,
			},
		}, nil
	}

	retrievedItems := make([]string, 0, len(results))
	for _, r := range results {
		retrievedItems = append(retrievedItems, formatContextItem(r))
	}

	contextItems := make([]string, 0, len(retrievedItems)+1)
	if strings.TrimSpace(q.Context) != "" {
		contextItems = append(contextItems, "Additional Context:\n"+q.Context)
	}
	contextItems = append(contextItems, retrievedItems...)

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			FilePath:   r.Document.Metadata.FilePath,
			LineStart:  r.Document.Metadata.LineStart,
			LineEnd:    r.Document.Metadata.LineEnd,
			Similarity: r.Similarity,
		})
	}

	confidence := computeConfidence(results)
	meta := Metadata{
		Model:           e.model,
		Temperature:     temperature,
		MaxTokens:       defaultMaxTokens,
		RetrievedChunks: len(results),
		EstimatedTokens: estimateTokens(strings.Join(contextItems, "\n\n---\n\n")) + estimateTokens(q.Question),
	}

	answer, err := e.generate(ctx, q.Question, contextItems, temperature)
	if err != nil {
		log.Warnf("generation failed, falling back to excerpts: %v", err)
		answer = fallbackAnswer(retrievedItems)
	}

	return &Result{
		Answer:         answer,
		Sources:        sources,
		Confidence:     confidence,
		ProcessingTime: time.Since(start),
		Metadata:       meta,
	}, nil
}

// Similar performs a similarity-only search with no generation step.
func (e *Engine) Similar(ctx context.Context, question string, k int, threshold float32) ([]SimilarMatch, error) {
	if k <= 0 {
		k = defaultMaxResults
	}
	resp, err := e.store.Search(ctx, question, k, nil)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	results := filterByThreshold(resp.Results, threshold)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	matches := make([]SimilarMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, SimilarMatch{Document: r.Document, Similarity: r.Similarity})
	}
	return matches, nil
}

func filterByThreshold(results []vectorstore.SearchResult, threshold float32) []vectorstore.SearchResult {
	if threshold <= 0 {
		out := make([]vectorstore.SearchResult, len(results))
		copy(out, results)
		return out
	}
	var out []vectorstore.SearchResult
	for _, r := range results {
		if r.Similarity >= threshold {
			out = append(out, r)
		}
	}
	return out
}

// formatContextItem renders one retrieved document in the canonical
// "File: ...\nSimilarity: XX.X%\nContent:\n..." shape spec.md §4.7
// step 4 specifies.
func formatContextItem(r vectorstore.SearchResult) string {
	var sb strings.Builder

	location := r.Document.Metadata.FilePath
	if location == "" {
		location = r.Document.Path
	}
	sb.WriteString("File: ")
	sb.WriteString(location)
	if r.Document.Metadata.LineStart > 0 {
		fmt.Fprintf(&sb, "(Lines %d-%d)", r.Document.Metadata.LineStart, r.Document.Metadata.LineEnd)
	}
	if r.Document.Metadata.Language != "" {
		fmt.Fprintf(&sb, "[%s]", r.Document.Metadata.Language)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Similarity: %.1f%%\n", r.Similarity*100)
	sb.WriteString("Content:\n")
	sb.WriteString(r.Document.Content)
	return sb.String()
}

// computeConfidence implements spec.md §4.7 step 7:
// min(maxSimilarity * min(docCount/3, 1), 1). Monotonic in both the
// top similarity and the retrieved-document count, satisfying the
// testable property that adding a strictly-more-similar document never
// decreases confidence.
func computeConfidence(results []vectorstore.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	maxSim := float64(results[0].Similarity)
	docFactor := math.Min(float64(len(results))/3.0, 1.0)
	return math.Min(maxSim*docFactor, 1.0)
}

// systemPreamble is the fixed instruction the Generator prepends to
// every request, per spec.md §4.6.
const systemPreamble = "Answer in the user's language. Cite files in inline-code. " +
	"Write your answer in markdown, but do not wrap the whole answer in a fenced code block."

func (e *Engine) generate(ctx context.Context, question string, contextItems []string, temperature float64) (string, error) {
	if e.gen == nil {
		return "", fmt.Errorf("rag: no generator configured")
	}

	prompt := fmt.Sprintf("%s\n\nQuestion: %s", strings.Join(contextItems, "\n\n---\n\n"), question)

	resp, err := e.gen.Complete(ctx, generator.CompletionRequest{
		Model: e.model,
		Messages: []generator.Message{
			{Role: generator.RoleSystem, Content: systemPreamble},
			{Role: generator.RoleUser, Content: prompt},
		},
		MaxTokens:   defaultMaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// fallbackAnswer implements spec.md §4.7's single deterministic
// generation-failure path: the first two context items, concatenated,
// prefixed with a fixed failure message.
func fallbackAnswer(contextItems []string) string {
	n := len(contextItems)
	if n > 2 {
		n = 2
	}
	return generationFailurePrefix + strings.Join(contextItems[:n], "\n\n---\n\n")
}

// estimateTokens is the default token estimator (spec.md §4.6):
// ceil(len(text) / 4).
func estimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4.0))
}
