package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/config"
)

func TestOllamaProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama3" {
			t.Errorf("expected model llama3, got %s", req.Model)
		}
		resp := ollamaChatResponse{
			Message:         ollamaMessage{Role: "assistant", Content: "hello there"},
			Model:           "llama3",
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 10,
			EvalCount:       5,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Content != "hello there" {
		t.Errorf("expected content %q, got %q", "hello there", resp.Content)
	}
	if resp.InputTokens != 10 || resp.OutputTokens != 5 {
		t.Errorf("unexpected token counts: %+v", resp)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected name ollama, got %s", p.Name())
	}
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3")
	_, err := p.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

// fakeProvider counts calls and can be made to fail.
type fakeProvider struct {
	calls int
	err   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func TestRateLimitedProvider_AllowsWithinBudget(t *testing.T) {
	inner := &fakeProvider{}
	limited := NewRateLimitedProvider(inner, 1000)

	for i := 0; i < 5; i++ {
		if _, err := limited.Complete(context.Background(), CompletionRequest{}); err != nil {
			t.Fatalf("Complete %d: %v", i, err)
		}
	}
	if inner.calls != 5 {
		t.Errorf("expected 5 calls through to the inner provider, got %d", inner.calls)
	}
	if limited.Name() != "fake" {
		t.Errorf("expected delegated name, got %s", limited.Name())
	}
}

func TestRateLimitedProvider_BlocksUntilContextCancelled(t *testing.T) {
	inner := &fakeProvider{}
	limited := NewRateLimitedProvider(inner, 1)

	ctx := context.Background()
	if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	// Budget exhausted; a context that's already done should return promptly.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := limited.Complete(cancelled, CompletionRequest{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewProvider_WrapsWithRateLimiterWhenConfigured(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	cfg := &config.Config{Provider: config.ProviderOllama, Model: "llama3", RateLimitRPM: 30}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := p.(*RateLimitedProvider); !ok {
		t.Fatalf("expected *RateLimitedProvider, got %T", p)
	}
}

func TestNewProvider_NoRateLimiterByDefault(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOllama, Model: "llama3"}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	if _, ok := p.(*RateLimitedProvider); ok {
		t.Fatal("expected unwrapped provider when RateLimitRPM is 0")
	}
}

func TestNewProvider_MissingAPIKeyErrors(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := &config.Config{Provider: config.ProviderAnthropic, Model: "claude-sonnet-4-5-20250929"}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for missing Anthropic API key")
	}
}

func TestNewProvider_OllamaDefaultsHost(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderOllama, Model: "llama3"}
	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	ollama, ok := p.(*OllamaProvider)
	if !ok {
		t.Fatalf("expected *OllamaProvider, got %T", p)
	}
	if ollama.baseURL != "http://localhost:11434" {
		t.Errorf("expected default host, got %s", ollama.baseURL)
	}
}

func TestNewProvider_UnsupportedProvider(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderType("bogus")}
	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for unsupported provider")
	}
}
