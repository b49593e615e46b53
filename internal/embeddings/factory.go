package embeddings

import (
	"fmt"

	"github.com/ziadkadry99/repowiki/internal/config"
)

// NewEmbedder creates an Embedder for the given embedder configuration.
// The Local-TFIDF variant is returned untrained; callers must call Train
// on it (via a type assertion to *LocalTFIDF) before first use.
func NewEmbedder(cfg config.EmbedderConfig, apiKey string) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderLocal, "":
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = DefaultLocalDimensions
		}
		return NewLocalTFIDF(dims), nil

	case config.ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("embeddings: OpenAI API key not found")
		}
		model := OpenAIModel(cfg.Model)
		if model == "" {
			model = ModelTextEmbedding3Small
		}
		return NewOpenAIEmbedder(apiKey, model), nil

	case config.ProviderGoogle:
		if apiKey == "" {
			return nil, fmt.Errorf("embeddings: Google API key not found")
		}
		model := GoogleModel(cfg.Model)
		if model == "" {
			model = ModelGeminiEmbedding001
		}
		return NewGoogleEmbedder(apiKey, model), nil

	case config.ProviderOllama:
		dims := cfg.Dimensions
		if dims <= 0 {
			dims = 768
		}
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(model, dims, "http://localhost:11434"), nil

	default:
		return nil, fmt.Errorf("embeddings: unsupported provider %q", cfg.Provider)
	}
}
