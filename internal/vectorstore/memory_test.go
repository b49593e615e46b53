package vectorstore

import (
	"context"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/embeddings"
)

// fixedEmbedder returns pre-assigned vectors keyed by exact text match,
// falling back to a zero vector for unrecognized text. Lets tests pin
// down exact similarity ordering instead of depending on a real encoder.
type fixedEmbedder struct {
	dims    int
	vectors map[string][]float32
}

func newFixedEmbedder(dims int) *fixedEmbedder {
	return &fixedEmbedder{dims: dims, vectors: make(map[string][]float32)}
}

func (f *fixedEmbedder) set(text string, vec []float32) { f.vectors[text] = vec }

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = make([]float32, f.dims)
		}
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return f.dims }
func (f *fixedEmbedder) Name() string    { return "fixed" }
func (f *fixedEmbedder) Fingerprint() embeddings.Fingerprint {
	return embeddings.Fingerprint{Provider: "fixed", Model: "fixed", Dimensions: f.dims}
}

func TestMemoryStore_SearchReturnsExactSelfMatch(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(3)
	e.set("the target document", []float32{1, 0, 0})
	e.set("query text", []float32{1, 0, 0})

	store := NewMemoryStore(e)
	if err := store.Add(ctx, Document{ID: "d1", Content: "the target document"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	resp, err := store.Search(ctx, "query text", 1, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	if resp.Results[0].Document.ID != "d1" {
		t.Errorf("expected d1, got %s", resp.Results[0].Document.ID)
	}
	if resp.Results[0].Similarity < 0.99 {
		t.Errorf("expected similarity ~1, got %f", resp.Results[0].Similarity)
	}
}

func TestMemoryStore_SimilarityInUnitRange(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("a", []float32{1, 0})
	e.set("b", []float32{0, 1})
	e.set("q", []float32{1, 1})

	store := NewMemoryStore(e)
	store.AddBatch(ctx, []Document{{ID: "a", Content: "a"}, {ID: "b", Content: "b"}})

	resp, err := store.Search(ctx, "q", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, r := range resp.Results {
		if r.Similarity < 0 || r.Similarity > 1.0001 {
			t.Errorf("similarity out of range: %f", r.Similarity)
		}
	}
}

func TestMemoryStore_TieBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("first", []float32{1, 0})
	e.set("second", []float32{1, 0})
	e.set("q", []float32{1, 0})

	store := NewMemoryStore(e)
	store.Add(ctx, Document{ID: "first", Content: "first"})
	store.Add(ctx, Document{ID: "second", Content: "second"})

	resp, err := store.Search(ctx, "q", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Results[0].Document.ID != "first" || resp.Results[1].Document.ID != "second" {
		t.Errorf("expected tie-break to preserve insertion order, got %s, %s",
			resp.Results[0].Document.ID, resp.Results[1].Document.ID)
	}
}

func TestMemoryStore_ZeroVectorRanksLast(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("real", []float32{1, 0})
	e.set("degenerate", []float32{0, 0})
	e.set("q", []float32{1, 0})

	store := NewMemoryStore(e)
	store.Add(ctx, Document{ID: "degenerate", Content: "degenerate"})
	store.Add(ctx, Document{ID: "real", Content: "real"})

	resp, err := store.Search(ctx, "q", 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.Results[0].Document.ID != "real" {
		t.Errorf("expected real document first, got %s", resp.Results[0].Document.ID)
	}
	if resp.Results[1].Similarity != 0 {
		t.Errorf("expected degenerate vector to score 0, got %f", resp.Results[1].Similarity)
	}
}

func TestMemoryStore_EmptyStoreReturnsZeroTotal(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	store := NewMemoryStore(e)

	resp, err := store.Search(ctx, "anything", 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if resp.TotalResults != 0 || len(resp.Results) != 0 {
		t.Errorf("expected empty response, got %+v", resp)
	}
}

func TestMemoryStore_DeleteByFilePath(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("a", []float32{1, 0})
	e.set("b", []float32{0, 1})

	store := NewMemoryStore(e)
	store.AddBatch(ctx, []Document{
		{ID: "a", Content: "a", Metadata: DocumentMetadata{FilePath: "x.go"}},
		{ID: "b", Content: "b", Metadata: DocumentMetadata{FilePath: "y.go"}},
	})

	if err := store.DeleteByFilePath(ctx, "x.go"); err != nil {
		t.Fatalf("DeleteByFilePath: %v", err)
	}
	if store.Count() != 1 {
		t.Fatalf("expected 1 remaining, got %d", store.Count())
	}

	docs, err := store.GetByFilePath(ctx, "y.go")
	if err != nil {
		t.Fatalf("GetByFilePath: %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "b" {
		t.Errorf("expected [b], got %+v", docs)
	}
}

func TestMemoryStore_PersistAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("content one", []float32{1, 0})

	store := NewMemoryStore(e)
	store.Add(ctx, Document{ID: "d1", Content: "content one", Metadata: DocumentMetadata{FilePath: "f.go"}})

	dir := t.TempDir()
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	restored := NewMemoryStore(e)
	if err := restored.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Count() != 1 {
		t.Fatalf("expected 1 document restored, got %d", restored.Count())
	}
}

func TestMemoryStore_LoadCacheMissOnFingerprintChange(t *testing.T) {
	ctx := context.Background()
	e1 := newFixedEmbedder(2)
	e1.set("content", []float32{1, 0})

	store := NewMemoryStore(e1)
	store.Add(ctx, Document{ID: "d1", Content: "content"})

	dir := t.TempDir()
	if err := store.Persist(ctx, dir); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	e2 := newFixedEmbedder(3) // different dimensions => different fingerprint.
	restored := NewMemoryStore(e2)
	if err := restored.Load(ctx, dir); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if restored.Count() != 0 {
		t.Errorf("expected cache-miss (0 documents) on fingerprint mismatch, got %d", restored.Count())
	}
}

func TestMemoryStore_ClearEmptiesStore(t *testing.T) {
	ctx := context.Background()
	e := newFixedEmbedder(2)
	e.set("x", []float32{1, 0})

	store := NewMemoryStore(e)
	store.Add(ctx, Document{ID: "d1", Content: "x"})
	store.Clear()

	if store.Count() != 0 {
		t.Errorf("expected empty store after Clear, got %d", store.Count())
	}
}

func TestMemoryStore_StatsReportsDimensions(t *testing.T) {
	e := newFixedEmbedder(128)
	store := NewMemoryStore(e)

	stats := store.Stats()
	if stats.Dimensions != 128 {
		t.Errorf("expected 128 dimensions, got %d", stats.Dimensions)
	}
	if stats.TotalDocuments != 0 {
		t.Errorf("expected 0 documents, got %d", stats.TotalDocuments)
	}
}
