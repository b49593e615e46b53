package config

// DefaultExcludedDirs mirrors scanner.DefaultExcludeDirs for the config
// layer's own validation/defaulting, kept independent so config has no
// import-time dependency on the scanner package.
var DefaultExcludedDirs = []string{
	".git", "node_modules", "vendor", "__pycache__",
	"dist", "build", ".next", ".nuxt", "target", "bin", "obj",
	"coverage", "venv", "env", ".venv", ".cache", ".idea", ".vscode", ".deepwiki",
}

// DefaultExcludedFiles are glob patterns excluded from scanning by default.
var DefaultExcludedFiles = []string{
	"*.log", "*.lock", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"*.min.js", "*.min.css", "*.map", ".DS_Store",
	"*.exe", "*.dll", "*.so", "*.dylib", "*.pyc", "*.class",
}

// DefaultConfig returns a Config with sensible defaults: Anthropic as the
// generator, local TF-IDF as the embedder (no API key required to get
// started), and the chunker/scanner defaults from their own packages.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Model:    "claude-sonnet-4-5-20250929",

		Embedder: EmbedderConfig{
			Provider:   ProviderLocal,
			Model:      "tfidf",
			Dimensions: 512,
			BatchSize:  10,
			Local: LocalEmbedderConfig{
				Algorithm:   "tfidf",
				MaxFeatures: 512,
				MinDF:       0.0,
				MaxDF:       1.0,
			},
		},

		ExcludedDirs:  append([]string(nil), DefaultExcludedDirs...),
		ExcludedFiles: append([]string(nil), DefaultExcludedFiles...),

		MaxFileSize: 1 << 20,
		MaxTokens:   100_000,

		ChunkSize:    1000,
		ChunkOverlap: 100,

		MaxConcurrency: 8,

		// Mirrors embeddings.DefaultCacheSize; kept as a literal to avoid
		// config importing embeddings (which already imports config for
		// EmbedderConfig).
		EmbeddingCacheSize: 4096,

		// Mirrors vectorstore.BackendMemory; kept as a literal for the
		// same import-cycle reason as EmbeddingCacheSize above.
		VectorStoreBackend: "memory",

		CacheDir: ".repowiki",
	}
}

// presetModels maps each generator provider to a reasonable default chat
// model, used when a config omits Model.
var presetModels = map[ProviderType]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o",
	ProviderGoogle:    "gemini-3-pro-preview",
	ProviderQwen:      "qwen-plus",
	ProviderAzure:     "gpt-4o",
	ProviderOllama:    "llama3",
}

// PresetModel returns the default chat model for a provider, or "" if the
// provider is unrecognized.
func PresetModel(provider ProviderType) string {
	return presetModels[provider]
}
