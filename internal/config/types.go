package config

// ProviderType identifies a generator or embedder provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderQwen      ProviderType = "qwen"
	ProviderAzure     ProviderType = "azure"
	ProviderOllama    ProviderType = "ollama"
	ProviderLocal     ProviderType = "local"
)

// Config is the top-level repowiki configuration, corresponding to .repowiki.yml.
type Config struct {
	// Generator selection.
	Provider ProviderType `yaml:"provider" koanf:"provider"`
	Model    string       `yaml:"model" koanf:"model"`
	APIKey   string       `yaml:"api_key,omitempty" koanf:"api_key"`

	// Azure-specific, only consulted when provider is "azure".
	AzureBaseURL    string `yaml:"azure_base_url,omitempty" koanf:"azure_base_url"`
	AzureDeployment string `yaml:"azure_deployment,omitempty" koanf:"azure_deployment"`
	AzureAPIVersion string `yaml:"azure_api_version,omitempty" koanf:"azure_api_version"`

	// Ollama-specific.
	OllamaHost string `yaml:"ollama_host,omitempty" koanf:"ollama_host"`

	Embedder EmbedderConfig `yaml:"embedder" koanf:"embedder"`

	ExcludedDirs  []string `yaml:"excluded_dirs" koanf:"excluded_dirs"`
	ExcludedFiles []string `yaml:"excluded_files" koanf:"excluded_files"`
	IncludedDirs  []string `yaml:"included_dirs" koanf:"included_dirs"`
	IncludedFiles []string `yaml:"included_files" koanf:"included_files"`

	MaxFileSize int64 `yaml:"max_file_size" koanf:"max_file_size"`
	MaxTokens   int   `yaml:"max_tokens" koanf:"max_tokens"`

	ChunkSize    int `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap" koanf:"chunk_overlap"`

	MaxConcurrency int `yaml:"max_concurrency" koanf:"max_concurrency"`

	// RateLimitRPM caps outbound generator requests to this many per
	// minute when > 0. 0 (the default) disables rate limiting.
	RateLimitRPM int `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`

	// VectorStoreBackend selects the Store implementation: "memory"
	// (default; satisfies spec.md §8's exact tie-break/zero-vector
	// invariants) or "chromem" (chromem-go-backed, native gob
	// persistence, its own ranking behavior).
	VectorStoreBackend string `yaml:"vector_store_backend" koanf:"vector_store_backend"`

	// EmbeddingCacheSize bounds the in-process LRU of content-hash ->
	// vector entries that buildIndex consults before calling the
	// embedder provider. 0 falls back to embeddings.DefaultCacheSize.
	EmbeddingCacheSize int `yaml:"embedding_cache_size" koanf:"embedding_cache_size"`

	CacheDir string `yaml:"cache_dir" koanf:"cache_dir"`
}

// EmbedderConfig selects and tunes the Embedder variant.
type EmbedderConfig struct {
	Provider   ProviderType        `yaml:"provider" koanf:"provider"`
	Model      string              `yaml:"model" koanf:"model"`
	Dimensions int                 `yaml:"dimensions" koanf:"dimensions"`
	BatchSize  int                 `yaml:"batch_size" koanf:"batch_size"`
	Local      LocalEmbedderConfig `yaml:"local" koanf:"local"`
}

// LocalEmbedderConfig tunes the Local-TFIDF embedder variant.
type LocalEmbedderConfig struct {
	Algorithm   string  `yaml:"algorithm" koanf:"algorithm"`
	MaxFeatures int     `yaml:"max_features" koanf:"max_features"`
	MinDF       float64 `yaml:"min_df" koanf:"min_df"`
	MaxDF       float64 `yaml:"max_df" koanf:"max_df"`
}
