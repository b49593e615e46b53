package embeddings

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the number of distinct chunk texts a
// CachingEmbedder keeps vectors for in-process.
const DefaultCacheSize = 4096

// CachingEmbedder wraps an Embedder with an in-process LRU keyed by the
// SHA-256 of each input text, so re-running Embed on chunk content this
// process has already embedded (for example a chunk repeated verbatim
// across files) skips the underlying provider call entirely. The cache
// lives only in memory: it starts empty in every process and is not
// persisted, so a separate rebuild re-embeds every chunk. This mirrors the
// teacher's state.go content-hash change detection, applied at the
// embedding call site instead of at the file level.
type CachingEmbedder struct {
	Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachingEmbedder wraps inner with a cache holding up to size entries.
// size <= 0 uses DefaultCacheSize.
func NewCachingEmbedder(inner Embedder, size int) (*CachingEmbedder, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachingEmbedder{Embedder: inner, cache: cache}, nil
}

// Embed returns cached vectors for texts already seen, and delegates the
// remainder to the wrapped Embedder in a single batched call, preserving
// input order in the result.
func (c *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := hashText(t)
		keys[i] = key
		if v, ok := c.cache.Get(key); ok {
			result[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return result, nil
	}

	vectors, err := c.Embedder.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, idx := range missIdx {
		result[idx] = vectors[j]
		c.cache.Add(keys[idx], vectors[j])
	}
	return result, nil
}

// CacheLen reports the number of distinct texts currently cached.
func (c *CachingEmbedder) CacheLen() int {
	return c.cache.Len()
}

func hashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
