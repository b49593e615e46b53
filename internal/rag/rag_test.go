package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/generator"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
)

type fakeStore struct {
	results []vectorstore.SearchResult
}

func (f *fakeStore) Add(ctx context.Context, doc vectorstore.Document) error      { return nil }
func (f *fakeStore) AddBatch(ctx context.Context, docs []vectorstore.Document) error { return nil }
func (f *fakeStore) Search(ctx context.Context, query string, k int, filter *vectorstore.SearchFilter) (vectorstore.SearchResponse, error) {
	results := f.results
	if k < len(results) {
		results = results[:k]
	}
	return vectorstore.SearchResponse{Results: results, TotalResults: len(f.results)}, nil
}
func (f *fakeStore) GetByFilePath(ctx context.Context, filePath string) ([]vectorstore.Document, error) {
	return nil, nil
}
func (f *fakeStore) DeleteByFilePath(ctx context.Context, filePath string) error { return nil }
func (f *fakeStore) Stats() vectorstore.Stats                                   { return vectorstore.Stats{} }
func (f *fakeStore) Clear()                                                     {}
func (f *fakeStore) Persist(ctx context.Context, dir string) error              { return nil }
func (f *fakeStore) Load(ctx context.Context, dir string) error                 { return nil }
func (f *fakeStore) Count() int                                                 { return len(f.results) }

func docResult(path string, sim float32) vectorstore.SearchResult {
	return vectorstore.SearchResult{
		Document: vectorstore.Document{
			Path:    path,
			Content: "content of " + path,
			Metadata: vectorstore.DocumentMetadata{
				FilePath:  path,
				LineStart: 1,
				LineEnd:   10,
				Language:  "Go",
			},
		},
		Similarity: sim,
	}
}

type fakeProvider struct {
	content string
	err     error
}

func (p fakeProvider) Complete(ctx context.Context, req generator.CompletionRequest) (*generator.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &generator.CompletionResponse{Content: p.content}, nil
}
func (p fakeProvider) Name() string { return "fake" }

func TestQuery_NoResultsReturnsFixedAnswer(t *testing.T) {
	store := &fakeStore{}
	engine := New(store, fakeProvider{content: "unused"}, "test-model")

	result, err := engine.Query(context.Background(), Query{Question: "what is this?"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Answer != noInformationAnswer {
		t.Errorf("Answer = %q, want fixed no-information answer", result.Answer)
	}
	if result.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", result.Confidence)
	}
}

func TestQuery_SuccessfulGeneration(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		docResult("a.go", 0.9),
		docResult("b.go", 0.5),
	}}
	engine := New(store, fakeProvider{content: "the answer"}, "test-model")

	result, err := engine.Query(context.Background(), Query{Question: "how does this work?"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Answer != "the answer" {
		t.Errorf("Answer = %q, want %q", result.Answer, "the answer")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("len(Sources) = %d, want 2", len(result.Sources))
	}
	if result.Metadata.RetrievedChunks != 2 {
		t.Errorf("RetrievedChunks = %d, want 2", result.Metadata.RetrievedChunks)
	}
	if result.Metadata.Model != "test-model" {
		t.Errorf("Model = %q, want test-model", result.Metadata.Model)
	}
}

func TestQuery_GenerationFailureFallsBack(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		docResult("a.go", 0.9),
		docResult("b.go", 0.7),
		docResult("c.go", 0.5),
	}}
	engine := New(store, fakeProvider{err: errors.New("provider down")}, "test-model")

	result, err := engine.Query(context.Background(), Query{Question: "how does this work?"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if result.Answer == "" {
		t.Fatal("expected non-empty fallback answer")
	}
	if !strings.Contains(result.Answer, generationFailurePrefix) {
		t.Errorf("Answer = %q, want fallback prefix", result.Answer)
	}
	if strings.Contains(result.Answer, "content of c.go") {
		t.Error("fallback answer should only include the first two context items")
	}
	if len(result.Sources) != 3 {
		t.Errorf("Sources should remain intact on fallback: got %d, want 3", len(result.Sources))
	}
}

func TestComputeConfidence_Monotonic(t *testing.T) {
	low := computeConfidence([]vectorstore.SearchResult{docResult("a.go", 0.5)})
	high := computeConfidence([]vectorstore.SearchResult{docResult("a.go", 0.9)})
	if high <= low {
		t.Errorf("confidence should increase with max similarity: low=%v high=%v", low, high)
	}

	oneDoc := computeConfidence([]vectorstore.SearchResult{docResult("a.go", 0.9)})
	threeDocs := computeConfidence([]vectorstore.SearchResult{
		docResult("a.go", 0.9), docResult("b.go", 0.9), docResult("c.go", 0.9),
	})
	if threeDocs <= oneDoc {
		t.Errorf("confidence should increase with more retrieved docs at same similarity: one=%v three=%v", oneDoc, threeDocs)
	}
}

func TestSimilar_FiltersByThreshold(t *testing.T) {
	store := &fakeStore{results: []vectorstore.SearchResult{
		docResult("a.go", 0.9),
		docResult("b.go", 0.2),
	}}
	engine := New(store, nil, "test-model")

	matches, err := engine.Similar(context.Background(), "q", 5, 0.5)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Document.Path != "a.go" {
		t.Errorf("matches[0].Document.Path = %q, want a.go", matches[0].Document.Path)
	}
}

