package vectorstore

import (
	"fmt"

	"github.com/ziadkadry99/repowiki/internal/embeddings"
)

// BackendMemory is the default Store backend: the from-scratch,
// brute-force cosine implementation that satisfies spec.md §8's
// testable stable-tie-break and zero-vector-ranks-last properties
// exactly.
const BackendMemory = "memory"

// BackendChromem selects the chromem-go-backed alternate Store, whose
// search ranking and tie-breaking follow chromem-go's own
// implementation rather than spec.md §8's exact invariants.
const BackendChromem = "chromem"

// NewStore resolves backend into a concrete Store bound to embedder.
// An empty backend defaults to BackendMemory.
func NewStore(backend string, embedder embeddings.Embedder) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemoryStore(embedder), nil
	case BackendChromem:
		return NewChromemStore(embedder)
	default:
		return nil, fmt.Errorf("vectorstore: unknown backend %q", backend)
	}
}
