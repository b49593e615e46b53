package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/repowiki/internal/embeddings"
)

const collectionName = "codebase"

// ChromemStore is an alternate VectorStore backed by chromem-go, offering
// its native gob-based persistence in place of MemoryStore's JSON
// snapshot. Search ranking and tie-breaking follow chromem-go's own
// implementation rather than the exact invariants MemoryStore guarantees.
type ChromemStore struct {
	db          *chromem.DB
	collection  *chromem.Collection
	embedder    embeddings.Embedder
	embedFunc   chromem.EmbeddingFunc
	concurrency int
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:          db,
		collection:  col,
		embedder:    embedder,
		embedFunc:   ef,
		concurrency: 1,
	}, nil
}

// SetConcurrency bounds how many documents AddBatch embeds in parallel,
// mirroring the teacher's internal/indexer/batcher.go configurable-
// parallelism Batcher. n <= 0 is ignored.
func (s *ChromemStore) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

func (s *ChromemStore) Add(ctx context.Context, doc Document) error {
	return s.AddBatch(ctx, []Document{doc})
}

func (s *ChromemStore) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		md := metadataToMap(doc.Metadata)
		md["doc_type"] = string(doc.Type)
		md["title"] = doc.Title
		md["path"] = doc.Path
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: md,
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, s.concurrency)
}

func (s *ChromemStore) Search(ctx context.Context, query string, k int, filter *SearchFilter) (SearchResponse, error) {
	if k <= 0 {
		k = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return SearchResponse{TotalResults: 0}, nil
	}
	if k > count {
		k = count
	}

	where := buildWhereClause(filter)

	results, err := s.collection.Query(ctx, query, k, where, nil)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document:   documentFromChromem(r.ID, r.Content, r.Metadata),
			Similarity: r.Similarity,
		}
	}

	return SearchResponse{Results: searchResults, TotalResults: count}, nil
}

func (s *ChromemStore) GetByFilePath(ctx context.Context, filePath string) ([]Document, error) {
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}

	where := map[string]string{"file_path": filePath}

	// Use filePath as the query text with count as limit to get all matching documents.
	results, err := s.collection.Query(ctx, filePath, count, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query by file path: %w", err)
	}

	docs := make([]Document, len(results))
	for i, r := range results {
		docs[i] = documentFromChromem(r.ID, r.Content, r.Metadata)
	}

	return docs, nil
}

func (s *ChromemStore) DeleteByFilePath(ctx context.Context, filePath string) error {
	where := map[string]string{"file_path": filePath}
	return s.collection.Delete(ctx, where, nil)
}

func (s *ChromemStore) Stats() Stats {
	return Stats{TotalDocuments: s.collection.Count(), Dimensions: s.embedder.Dimensions()}
}

func (s *ChromemStore) Clear() {
	// chromem-go has no collection-wide clear; start a fresh DB/collection.
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, s.embedFunc)
	if err != nil {
		return
	}
	s.db = db
	s.collection = col
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/chromem.gob.gz", true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(dir+"/chromem.gob.gz", "")
	if err != nil {
		return nil // missing export is a cache-miss, not an error.
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// documentFromChromem rebuilds a Document from chromem's flat content +
// metadata map representation.
func documentFromChromem(id, content string, md map[string]string) Document {
	return Document{
		ID:       id,
		Title:    md["title"],
		Content:  content,
		Path:     md["path"],
		Type:     DocumentType(md["doc_type"]),
		Metadata: mapToMetadata(md),
	}
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	md := map[string]string{
		"file_path":    m.FilePath,
		"line_start":   strconv.Itoa(m.LineStart),
		"line_end":     strconv.Itoa(m.LineEnd),
		"content_hash": m.ContentHash,
		"language":     m.Language,
		"symbol":       m.Symbol,
		"last_updated": m.LastUpdated.Format(time.RFC3339),
	}
	return md
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	lineStart, _ := strconv.Atoi(m["line_start"])
	lineEnd, _ := strconv.Atoi(m["line_end"])
	lastUpdated, _ := time.Parse(time.RFC3339, m["last_updated"])

	return DocumentMetadata{
		FilePath:    m["file_path"],
		LineStart:   lineStart,
		LineEnd:     lineEnd,
		ContentHash: m["content_hash"],
		Language:    m["language"],
		Symbol:      m["symbol"],
		LastUpdated: lastUpdated,
	}
}

// buildWhereClause converts a SearchFilter to a chromem where clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Type != nil {
		where["doc_type"] = string(*filter.Type)
	}
	if filter.FilePath != nil {
		where["file_path"] = *filter.FilePath
	}
	if filter.Language != nil {
		where["language"] = *filter.Language
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
