package embeddings

import (
	"context"
	"math"
	"strings"
)

// DefaultLocalDimensions is the fixed vector length produced by LocalTFIDF.
const DefaultLocalDimensions = 512

// LocalTFIDF is a stateful embedder requiring a Train pass before Embed
// returns meaningful vectors. Vocabulary keeps stable insertion order of
// first appearance; IDF uses the standard ln(N/df) weighting. Vectors are
// bucketed into a fixed dimension by vocabulary-index modulo dimension
// and L2-normalized.
type LocalTFIDF struct {
	dimensions int
	minTokenLen int

	trained bool
	vocab   []string       // insertion order of first appearance.
	index   map[string]int // token -> position in vocab.
	idf     map[string]float64
}

// NewLocalTFIDF creates an untrained local embedder. dimensions <= 0 uses
// DefaultLocalDimensions.
func NewLocalTFIDF(dimensions int) *LocalTFIDF {
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}
	return &LocalTFIDF{
		dimensions:  dimensions,
		minTokenLen: 3,
		index:       make(map[string]int),
		idf:         make(map[string]float64),
	}
}

func (e *LocalTFIDF) Name() string      { return "local-tfidf" }
func (e *LocalTFIDF) Dimensions() int   { return e.dimensions }
func (e *LocalTFIDF) Fingerprint() Fingerprint {
	return Fingerprint{Provider: "local", Model: "tfidf", Dimensions: e.dimensions}
}

// untrainedError is returned by Embed before Train has been called.
type untrainedError struct{}

func (untrainedError) Error() string { return "embeddings: LocalTFIDF used before Train" }

// Train builds the vocabulary (stable insertion order) and IDF table from
// the given corpus. Calling Train again replaces the existing state.
func (e *LocalTFIDF) Train(corpus []string) {
	e.vocab = nil
	e.index = make(map[string]int)
	df := make(map[string]int)

	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, tok := range tokenize(doc, e.minTokenLen) {
			if _, ok := e.index[tok]; !ok {
				e.index[tok] = len(e.vocab)
				e.vocab = append(e.vocab, tok)
			}
			if !seen[tok] {
				df[tok]++
				seen[tok] = true
			}
		}
	}

	n := float64(len(corpus))
	e.idf = make(map[string]float64, len(df))
	for tok, d := range df {
		e.idf[tok] = math.Log(n / float64(d))
	}

	e.trained = true
}

// Embed requires Train to have been called first; it refuses with a typed
// error otherwise so fingerprinting and snapshot correctness can rely on
// training having actually happened.
func (e *LocalTFIDF) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if !e.trained {
		return nil, untrainedError{}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.encode(t)
	}
	return out, nil
}

func (e *LocalTFIDF) encode(text string) []float32 {
	vec := make([]float64, e.dimensions)

	tokens := tokenize(text, e.minTokenLen)
	if len(tokens) == 0 {
		return toFloat32Zero(e.dimensions)
	}

	tf := make(map[string]int)
	for _, tok := range tokens {
		tf[tok]++
	}

	for tok, count := range tf {
		idx, ok := e.index[tok]
		if !ok {
			continue // unknown vocabulary term contributes zero.
		}
		pos := idx % e.dimensions
		weight := float64(count) * e.idf[tok]
		vec[pos] += weight
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	result := make([]float32, e.dimensions)
	if norm == 0 {
		return result // all-zero vector, permitted for empty/OOV-only text.
	}
	for i, v := range vec {
		result[i] = float32(v / norm)
	}
	return result
}

func toFloat32Zero(n int) []float32 {
	return make([]float32, n)
}

// tokenize lowercases, replaces non-word characters with spaces, and
// drops tokens shorter than minLen.
func tokenize(text string, minLen int) []string {
	lower := strings.ToLower(text)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	var out []string
	for _, tok := range strings.Fields(b.String()) {
		if len(tok) >= minLen {
			out = append(out, tok)
		}
	}
	return out
}
