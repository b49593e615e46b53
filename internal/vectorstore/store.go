package vectorstore

import (
	"context"
)

// Store is the contract every VectorStore backend satisfies: add,
// addBatch, search, stats, clear, plus filepath-scoped maintenance
// operations used by incremental re-indexing.
type Store interface {
	// Add inserts a single document.
	Add(ctx context.Context, doc Document) error

	// AddBatch inserts documents into the store.
	AddBatch(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text, returning
	// the top k results by descending similarity plus the total candidate
	// count considered. MemoryStore breaks ties by insertion order;
	// ChromemStore follows chromem-go's own ordering.
	Search(ctx context.Context, query string, k int, filter *SearchFilter) (SearchResponse, error)

	// GetByFilePath retrieves all documents associated with the given file path.
	GetByFilePath(ctx context.Context, filePath string) ([]Document, error)

	// DeleteByFilePath removes all documents associated with the given file path.
	DeleteByFilePath(ctx context.Context, filePath string) error

	// Stats reports the current size of the store.
	Stats() Stats

	// Clear removes every document from the store.
	Clear()

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
