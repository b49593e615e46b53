package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider %q, got %q", ProviderAnthropic, cfg.Provider)
	}
	if cfg.Embedder.Provider != ProviderLocal {
		t.Errorf("expected default embedder provider %q, got %q", ProviderLocal, cfg.Embedder.Provider)
	}
	if cfg.ChunkSize != 1000 {
		t.Errorf("expected default chunk_size 1000, got %d", cfg.ChunkSize)
	}
	if cfg.MaxConcurrency != 8 {
		t.Errorf("expected default max_concurrency 8, got %d", cfg.MaxConcurrency)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.repowiki.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.IncludedFiles = []string{"**/*.go", "**/*.py"}
	original.Embedder.Dimensions = 256

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Embedder.Dimensions != original.Embedder.Dimensions {
		t.Errorf("embedder.dimensions: got %d, want %d", loaded.Embedder.Dimensions, original.Embedder.Dimensions)
	}
	if len(loaded.IncludedFiles) != len(original.IncludedFiles) {
		t.Errorf("included_files length: got %d, want %d", len(loaded.IncludedFiles), len(original.IncludedFiles))
	}
	for i, v := range loaded.IncludedFiles {
		if v != original.IncludedFiles[i] {
			t.Errorf("included_files[%d]: got %q, want %q", i, v, original.IncludedFiles[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderAnthropic {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("REPOWIKI_PROVIDER", "openai")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got: %v", err)
	}
}

func TestValidateInvalidProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid provider")
	}
}

func TestValidateLocalProviderRejectedAsGenerator(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderLocal
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for local generator provider")
	}
}

func TestValidateEmptyModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderAnthropic
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty model")
	}
}

func TestValidateOpenAIKeyPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.Model = "gpt-4o"
	cfg.APIKey = "not-a-valid-key"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for malformed OpenAI key prefix")
	}
}

func TestValidateNonPositiveDimensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Embedder.Dimensions = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for non-positive embedder dimensions")
	}
}

func TestValidateChunkOverlapTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 100
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for chunk overlap >= chunk size")
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderQwen, "DASHSCOPE_API_KEY"},
		{ProviderAzure, "AZURE_OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestResolveAPIKeyPrefersConfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	got := ResolveAPIKey(ProviderOpenAI, "sk-from-config")
	if got != "sk-from-config" {
		t.Errorf("expected configured key to win, got %q", got)
	}
}

func TestResolveAPIKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	got := ResolveAPIKey(ProviderOpenAI, "")
	if got != "sk-from-env" {
		t.Errorf("expected env fallback, got %q", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"**/*.go", []string{"**/*.go"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

