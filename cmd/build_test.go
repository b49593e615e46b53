package cmd

import (
	"context"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/analyzer"
	"github.com/ziadkadry99/repowiki/internal/embeddings"
	"github.com/ziadkadry99/repowiki/internal/scanner"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
	"github.com/ziadkadry99/repowiki/internal/wiki"
)

// TestBuildPipeline_IndexesWikiAlongsideSource reproduces runBuild's
// document-indexing sequence against a single-file project: one source
// chunk followed by the wiki's six fixed sections must land in the same
// store, matching the combined count a real build produces.
func TestBuildPipeline_IndexesWikiAlongsideSource(t *testing.T) {
	ctx := context.Background()

	files := []scanner.File{
		{RelPath: "main.go", Language: "Go", Content: "package main\n\nfunc main() {}\n", Importance: 5},
	}
	analysis, err := analyzer.Analyze("/repos/demo", files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	embedder := embeddings.NewLocalTFIDF(16)
	embedder.Train([]string{files[0].Content})

	store := vectorstore.NewMemoryStore(embedder)
	if err := store.Add(ctx, vectorstore.Document{
		ID:      "main.go",
		Title:   "main.go",
		Content: files[0].Content,
		Path:    "main.go",
		Type:    vectorstore.DocTypeFile,
	}); err != nil {
		t.Fatalf("Add source document: %v", err)
	}

	wikiData := wiki.Build(analysis)
	if err := store.AddBatch(ctx, wikiData.Documents()); err != nil {
		t.Fatalf("AddBatch wiki documents: %v", err)
	}

	stats := store.Stats()
	if stats.TotalDocuments != 7 {
		t.Errorf("TotalDocuments = %d, want 1 (source) + 6 (wiki sections) == 7", stats.TotalDocuments)
	}
}
