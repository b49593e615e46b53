// Package vectorstore holds the in-memory store of embedded Documents:
// source chunks and derived wiki sections, kept in insertion order,
// searchable by cosine similarity and removable by file path.
package vectorstore

import "time"

// DocumentType categorizes the kind of document stored in the vector store.
type DocumentType string

const (
	DocTypeFile    DocumentType = "file"
	DocTypeFunction DocumentType = "function"
	DocTypeClass    DocumentType = "class"
	DocTypeWiki     DocumentType = "wiki"
)

// Document is the only entity the VectorStore understands: a source
// chunk or a derived wiki section, addressable by id. Immutable after
// insertion.
type Document struct {
	ID       string
	Title    string
	Content  string
	Path     string // real file path for source chunks, "wiki/<section>" for wiki docs.
	Type     DocumentType
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured provenance for a Document.
type DocumentMetadata struct {
	FilePath    string
	LineStart   int
	LineEnd     int
	ContentHash string
	Language    string
	Symbol      string
	LastUpdated time.Time
}

// SearchResult pairs a document with its similarity score (relevanceScore
// in the spec's vocabulary): the cosine similarity, in [-1, 1], and in
// [0, 1] for embedders whose vectors have no negative components, such
// as LocalTFIDF.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchResponse is the result of a top-k search.
type SearchResponse struct {
	Results      []SearchResult
	TotalResults int
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	Type     *DocumentType
	FilePath *string
	Language *string
}

// Stats summarizes the current contents of a Store.
type Stats struct {
	TotalDocuments int
	Dimensions     int
}
