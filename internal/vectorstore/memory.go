package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ziadkadry99/repowiki/internal/embeddings"
	"github.com/ziadkadry99/repowiki/internal/logging"
)

// SchemaVersion is the current snapshot schema version. A loader that
// sees a different version treats the file as a cache-miss and does not
// attempt migration.
const SchemaVersion = "1.0.0"

const snapshotFileName = "vectors.json"

var log = logging.New("vectorstore")

// entry is one stored (vector, document) pair, kept in insertion order.
type entry struct {
	vector []float32
	doc    Document
}

// MemoryStore is the default VectorStore backend: a dense, insertion-
// ordered slice of embeddings, each holding its vector, full metadata,
// and content, searched by brute-force cosine similarity. It satisfies
// the exact tie-break and zero-norm-ranks-last invariants the pipeline's
// tests assert; callers who want chromem-go's native persistence instead
// should use ChromemStore.
type MemoryStore struct {
	mu       sync.Mutex
	embedder embeddings.Embedder
	entries  []entry
	byPath   map[string][]int // filePath -> indices into entries.
}

// NewMemoryStore creates an empty store bound to the given embedder.
func NewMemoryStore(embedder embeddings.Embedder) *MemoryStore {
	return &MemoryStore{
		embedder: embedder,
		byPath:   make(map[string][]int),
	}
}

func (s *MemoryStore) Add(ctx context.Context, doc Document) error {
	return s.AddBatch(ctx, []Document{doc})
}

func (s *MemoryStore) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("vectorstore: embed batch: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range docs {
		idx := len(s.entries)
		s.entries = append(s.entries, entry{vector: vectors[i], doc: d})
		if d.Metadata.FilePath != "" {
			s.byPath[d.Metadata.FilePath] = append(s.byPath[d.Metadata.FilePath], idx)
		}
	}
	return nil
}

func (s *MemoryStore) Search(ctx context.Context, query string, k int, filter *SearchFilter) (SearchResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return SearchResponse{TotalResults: 0}, nil
	}
	if k <= 0 {
		k = 10
	}

	qvecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return SearchResponse{}, fmt.Errorf("vectorstore: embed query: %w", err)
	}
	qvec := qvecs[0]

	type scored = struct {
		idx int
		sim float32
	}
	var candidates []scored
	for i, e := range s.entries {
		if !matches(e.doc, filter) {
			continue
		}
		candidates = append(candidates, scored{idx: i, sim: cosineSimilarity(qvec, e.vector)})
	}

	// Stable sort preserves insertion order for ties: candidates are
	// already in insertion order, and stableSortDescending (an insertion
	// sort) keeps that order among equal similarities.
	stableSortDescending(candidates)

	total := len(candidates)
	if k > total {
		k = total
	}

	results := make([]SearchResult, 0, k)
	for _, c := range candidates[:k] {
		results = append(results, SearchResult{Document: s.entries[c.idx].doc, Similarity: c.sim})
	}

	return SearchResponse{Results: results, TotalResults: total}, nil
}

func stableSortDescending(c []struct {
	idx int
	sim float32
}) {
	// Insertion sort: stable, and candidates are few enough per query
	// that O(n^2) is irrelevant next to the embedding call it follows.
	for i := 1; i < len(c); i++ {
		j := i
		for j > 0 && c[j].sim > c[j-1].sim {
			c[j], c[j-1] = c[j-1], c[j]
			j--
		}
	}
}

func matches(d Document, filter *SearchFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Type != nil && d.Type != *filter.Type {
		return false
	}
	if filter.FilePath != nil && d.Metadata.FilePath != *filter.FilePath {
		return false
	}
	if filter.Language != nil && d.Metadata.Language != *filter.Language {
		return false
	}
	return true
}

// cosineSimilarity returns 0 for a degenerate (zero-norm) vector on
// either side, ranking it last rather than erroring.
func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func (s *MemoryStore) GetByFilePath(ctx context.Context, filePath string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var docs []Document
	for _, idx := range s.byPath[filePath] {
		docs = append(docs, s.entries[idx].doc)
	}
	return docs, nil
}

func (s *MemoryStore) DeleteByFilePath(ctx context.Context, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remove := make(map[int]bool)
	for _, idx := range s.byPath[filePath] {
		remove[idx] = true
	}
	if len(remove) == 0 {
		return nil
	}

	var kept []entry
	for i, e := range s.entries {
		if !remove[i] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	s.rebuildIndex()
	return nil
}

func (s *MemoryStore) rebuildIndex() {
	s.byPath = make(map[string][]int)
	for i, e := range s.entries {
		if e.doc.Metadata.FilePath != "" {
			s.byPath[e.doc.Metadata.FilePath] = append(s.byPath[e.doc.Metadata.FilePath], i)
		}
	}
}

func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{TotalDocuments: len(s.entries), Dimensions: s.embedder.Dimensions()}
}

func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.byPath = make(map[string][]int)
}

func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// snapshotDocument is the truncated, JSON-serializable view of a stored
// document kept in the snapshot file.
type snapshotDocument struct {
	ID             string                     `json:"id"`
	ContentPreview string                     `json:"contentPreview"`
	Metadata       DocumentMetadata           `json:"metadata"`
	Type           DocumentType               `json:"type"`
	Path           string                     `json:"path"`
	Title          string                     `json:"title"`
	Vector         []float32                  `json:"vector,omitempty"`
}

// Snapshot is the serializable object persisted to vectors.json.
type Snapshot struct {
	SchemaVersion       string             `json:"schemaVersion"`
	CreatedAt           time.Time          `json:"createdAt"`
	EmbedderFingerprint embeddings.Fingerprint `json:"embedderFingerprint"`
	Stats               Stats              `json:"stats"`
	Documents           []snapshotDocument `json:"documents"`
}

const previewLen = 500

// Persist writes the store's snapshot (including full vectors, an
// interface-permitted extension) to <dir>/vectors.json.
func (s *MemoryStore) Persist(ctx context.Context, dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]snapshotDocument, 0, len(s.entries))
	for _, e := range s.entries {
		preview := e.doc.Content
		if len(preview) > previewLen {
			preview = preview[:previewLen]
		}
		docs = append(docs, snapshotDocument{
			ID:             e.doc.ID,
			ContentPreview: preview,
			Metadata:       e.doc.Metadata,
			Type:           e.doc.Type,
			Path:           e.doc.Path,
			Title:          e.doc.Title,
			Vector:         e.vector,
		})
	}

	snap := Snapshot{
		SchemaVersion:       SchemaVersion,
		CreatedAt:           time.Now(),
		EmbedderFingerprint: s.embedder.Fingerprint(),
		Stats:               Stats{TotalDocuments: len(s.entries), Dimensions: s.embedder.Dimensions()},
		Documents:           docs,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("vectorstore: marshal snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warnf("create cache dir %s: %v", dir, err)
		return nil // best-effort; a write failure logs and does not abort indexing.
	}
	if err := os.WriteFile(filepath.Join(dir, snapshotFileName), data, 0o644); err != nil {
		log.Warnf("write snapshot %s: %v", dir, err)
	}
	return nil
}

// Load restores from <dir>/vectors.json. A schema-version or embedder
// fingerprint mismatch is a cache-miss: the store is left empty and no
// error is returned, matching the cache-miss-is-not-an-error contract.
func (s *MemoryStore) Load(ctx context.Context, dir string) error {
	data, err := os.ReadFile(filepath.Join(dir, snapshotFileName))
	if err != nil {
		return nil // missing snapshot is not an error.
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warnf("parse snapshot %s: %v", dir, err)
		return nil
	}

	if snap.SchemaVersion != SchemaVersion {
		log.Debugf("snapshot schema %s != %s, cache-miss", snap.SchemaVersion, SchemaVersion)
		return nil
	}
	if snap.EmbedderFingerprint != s.embedder.Fingerprint() {
		log.Debugf("embedder fingerprint mismatch, cache-miss")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.byPath = make(map[string][]int)
	for _, sd := range snap.Documents {
		if len(sd.Vector) == 0 {
			// Snapshot has no persisted vector for this document; it
			// cannot be restored without re-embedding, so it is dropped
			// from the restored set and must be rebuilt by the caller.
			continue
		}
		idx := len(s.entries)
		s.entries = append(s.entries, entry{
			vector: sd.Vector,
			doc: Document{
				ID:       sd.ID,
				Title:    sd.Title,
				Content:  sd.ContentPreview,
				Path:     sd.Path,
				Type:     sd.Type,
				Metadata: sd.Metadata,
			},
		})
		if sd.Metadata.FilePath != "" {
			s.byPath[sd.Metadata.FilePath] = append(s.byPath[sd.Metadata.FilePath], idx)
		}
	}

	return nil
}
