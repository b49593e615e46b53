// Package embeddings provides the variant set of text embedders: remote
// HTTP providers and a stateful local TF-IDF fallback.
package embeddings

import "context"

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the number of dimensions in the embedding vectors.
	Dimensions() int

	// Name returns the name/identifier of the embedding model.
	Name() string

	// Fingerprint returns the (provider, model, dimensions) tuple used by
	// IndexCache to detect cache compatibility.
	Fingerprint() Fingerprint
}

// Fingerprint identifies the embedder configuration a snapshot was built
// with. IndexCache treats a fingerprint mismatch as a cache-miss, not an
// error.
type Fingerprint struct {
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}
