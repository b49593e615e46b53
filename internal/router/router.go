// Package router resolves a Config into concrete Generator and Embedder
// variants, validating the configuration and offering a single
// connectivity-test operation before a pipeline commits to a provider.
package router

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/repowiki/internal/config"
	"github.com/ziadkadry99/repowiki/internal/embeddings"
	"github.com/ziadkadry99/repowiki/internal/generator"
)

// Router maps configuration to concrete provider variants.
type Router struct {
	cfg *config.Config
}

// New creates a Router bound to the given configuration. The
// configuration is validated immediately; a malformed configuration
// never reaches a provider construction.
func New(cfg *config.Config) (*Router, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Router{cfg: cfg}, nil
}

// Generator resolves the configured generator variant.
func (r *Router) Generator() (generator.Provider, error) {
	return generator.NewProvider(r.cfg)
}

// Embedder resolves the configured embedder variant. The Local-TFIDF
// variant is returned untrained.
func (r *Router) Embedder() (embeddings.Embedder, error) {
	apiKey := config.ResolveAPIKey(r.cfg.Embedder.Provider, r.cfg.APIKey)
	return embeddings.NewEmbedder(r.cfg.Embedder, apiKey)
}

// TestConnectivity issues a minimal request against the configured
// generator to confirm credentials and network reachability before a
// full pipeline run begins.
func (r *Router) TestConnectivity(ctx context.Context) error {
	gen, err := r.Generator()
	if err != nil {
		return fmt.Errorf("router: resolve generator: %w", err)
	}

	_, err = gen.Complete(ctx, generator.CompletionRequest{
		Messages:  []generator.Message{{Role: generator.RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return fmt.Errorf("router: connectivity test against %s failed: %w", gen.Name(), err)
	}
	return nil
}
