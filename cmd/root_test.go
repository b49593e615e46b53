package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/errs"
)

func TestExitCodeFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil-like generic", errors.New("boom"), exitGenericError},
		{"config error", &errs.ConfigError{Field: "provider", Reason: "missing"}, exitConfigError},
		{"embedding error", &errs.EmbeddingError{Provider: "openai", Err: errors.New("x")}, exitProviderError},
		{"generation error", &errs.GenerationError{Provider: "anthropic", Err: errors.New("x")}, exitProviderError},
		{"cache miss error", &errs.CacheMissError{Reason: "no snapshot"}, exitCacheOrIOError},
		{
			"wrapped config error",
			fmt.Errorf("loading config: %w", &errs.ConfigError{Field: "model", Reason: "required"}),
			exitConfigError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
