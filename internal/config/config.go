package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/repowiki/internal/errs"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (REPOWIKI_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("REPOWIKI_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "REPOWIKI_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderAnthropic: true,
	ProviderOpenAI:    true,
	ProviderGoogle:    true,
	ProviderQwen:      true,
	ProviderAzure:     true,
	ProviderOllama:    true,
	ProviderLocal:     true,
}

// Validate checks that the configuration contains valid values, returning
// a typed ConfigError describing the first problem found.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return &errs.ConfigError{Field: "provider", Reason: "is required"}
	}
	if !validProviders[c.Provider] {
		return &errs.ConfigError{Field: "provider", Reason: fmt.Sprintf("unrecognized provider %q", c.Provider)}
	}
	if c.Provider == ProviderLocal {
		return &errs.ConfigError{Field: "provider", Reason: "\"local\" is an embedder-only provider, not a generator"}
	}

	if c.Model == "" {
		return &errs.ConfigError{Field: "model", Reason: "is required"}
	}

	if c.Provider == ProviderOpenAI && c.APIKey != "" && !strings.HasPrefix(c.APIKey, "sk-") {
		return &errs.ConfigError{Field: "apiKey", Reason: "OpenAI API keys must start with \"sk-\""}
	}

	if c.Embedder.Provider != "" && !validProviders[c.Embedder.Provider] {
		return &errs.ConfigError{Field: "embedder.provider", Reason: fmt.Sprintf("unrecognized provider %q", c.Embedder.Provider)}
	}
	if c.Embedder.Dimensions <= 0 {
		return &errs.ConfigError{Field: "embedder.dimensions", Reason: "must be > 0"}
	}
	if c.Embedder.BatchSize <= 0 {
		return &errs.ConfigError{Field: "embedder.batchSize", Reason: "must be > 0"}
	}

	if c.MaxFileSize <= 0 {
		return &errs.ConfigError{Field: "maxFileSize", Reason: "must be > 0"}
	}
	if c.MaxTokens <= 0 {
		return &errs.ConfigError{Field: "maxTokens", Reason: "must be > 0"}
	}
	if c.ChunkSize <= 0 {
		return &errs.ConfigError{Field: "chunkSize", Reason: "must be > 0"}
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return &errs.ConfigError{Field: "chunkOverlap", Reason: "must be >= 0 and less than chunkSize"}
	}

	if c.VectorStoreBackend != "" && c.VectorStoreBackend != "memory" && c.VectorStoreBackend != "chromem" {
		return &errs.ConfigError{Field: "vectorStoreBackend", Reason: fmt.Sprintf("unrecognized backend %q, want \"memory\" or \"chromem\"", c.VectorStoreBackend)}
	}

	if c.RateLimitRPM < 0 {
		return &errs.ConfigError{Field: "rateLimitRpm", Reason: "must be >= 0"}
	}

	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for the
// API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	case ProviderQwen:
		return "DASHSCOPE_API_KEY"
	case ProviderAzure:
		return "AZURE_OPENAI_API_KEY"
	default:
		return ""
	}
}

// ResolveAPIKey returns the configured API key, falling back to the
// provider's conventional environment variable.
func ResolveAPIKey(provider ProviderType, configured string) string {
	if configured != "" {
		return configured
	}
	if envVar := APIKeyEnvVar(provider); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}
