package cmd

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/repowiki/internal/analyzer"
	"github.com/ziadkadry99/repowiki/internal/chunker"
	"github.com/ziadkadry99/repowiki/internal/config"
	"github.com/ziadkadry99/repowiki/internal/embeddings"
	"github.com/ziadkadry99/repowiki/internal/router"
	"github.com/ziadkadry99/repowiki/internal/scanner"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `repowiki init` to create a config file", err)
	}
	return cfg, nil
}

// pipelineResult is the output of buildIndex: a populated store ready to
// persist or query, the static analysis that seeds the wiki, and the
// chunk set the store was built from (useful for progress reporting).
type pipelineResult struct {
	Store    vectorstore.Store
	Analysis *analyzer.ProjectAnalysis
	Chunks   []chunker.Chunk
}

// buildIndex runs the scan -> chunk -> embed -> index pipeline against
// repoPath. If the resolved embedder is the local TF-IDF variant, it is
// trained on the chunk corpus before anything is added to the store,
// since LocalTFIDF produces meaningless vectors until trained.
func buildIndex(ctx context.Context, cfg *config.Config, repoPath string, progress func(stage string)) (*pipelineResult, error) {
	report := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	report("scanning")
	files, err := scanner.Scan(scanner.Config{
		RootDir:     repoPath,
		Include:     cfg.IncludedFiles,
		Exclude:     cfg.ExcludedDirs,
		MaxFileSize: cfg.MaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", repoPath, err)
	}

	report("chunking")
	var chunks []chunker.Chunk
	for _, f := range files {
		chunks = append(chunks, chunker.ChunkFile(f, cfg.ChunkSize, cfg.ChunkOverlap)...)
	}

	r, err := router.New(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := r.Embedder()
	if err != nil {
		return nil, err
	}

	if local, ok := embedder.(*embeddings.LocalTFIDF); ok {
		report("training local embedder")
		corpus := make([]string, len(chunks))
		for i, c := range chunks {
			corpus[i] = c.Content
		}
		local.Train(corpus)
	}

	cachingEmbedder, err := embeddings.NewCachingEmbedder(embedder, cfg.EmbeddingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	store, err := vectorstore.NewStore(cfg.VectorStoreBackend, cachingEmbedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if chromem, ok := store.(*vectorstore.ChromemStore); ok {
		chromem.SetConcurrency(cfg.MaxConcurrency)
	}

	report("embedding and indexing")
	docs := make([]vectorstore.Document, 0, len(chunks))
	for _, c := range chunks {
		docs = append(docs, vectorstore.Document{
			ID:      c.ID,
			Title:   c.SourcePath,
			Content: c.Content,
			Path:    c.SourcePath,
			Type:    vectorstore.DocTypeFile,
			Metadata: vectorstore.DocumentMetadata{
				FilePath:    c.SourcePath,
				LineStart:   c.StartLine,
				LineEnd:     c.EndLine,
				ContentHash: c.ContentHash,
				Language:    c.Language,
			},
		})
	}
	if err := store.AddBatch(ctx, docs); err != nil {
		return nil, fmt.Errorf("indexing documents: %w", err)
	}

	report("analyzing project structure")
	analysis, err := analyzer.Analyze(repoPath, files)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", repoPath, err)
	}

	return &pipelineResult{Store: store, Analysis: analysis, Chunks: chunks}, nil
}

// loadStore reconstructs the embedder for cfg and loads a previously
// persisted snapshot from dir into a freshly constructed store. A missing
// or mismatched snapshot is a cache-miss, not an error: the store comes
// back empty, so callers check Count() before querying it.
func loadStore(ctx context.Context, cfg *config.Config, dir string) (vectorstore.Store, error) {
	r, err := router.New(cfg)
	if err != nil {
		return nil, err
	}
	embedder, err := r.Embedder()
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.NewStore(cfg.VectorStoreBackend, embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, dir); err != nil {
		return nil, fmt.Errorf("loading vector store from %s: %w", dir, err)
	}
	return store, nil
}
