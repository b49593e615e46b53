package generator

import (
	"fmt"

	"github.com/ziadkadry99/repowiki/internal/config"
)

// NewProvider creates a Provider for the given generator configuration.
// Credentials are resolved from cfg.APIKey, falling back to the
// provider's conventional environment variable. When cfg.RateLimitRPM
// is set, the returned Provider is wrapped in a RateLimitedProvider
// capping outbound requests to that many per minute.
func NewProvider(cfg *config.Config) (Provider, error) {
	provider, err := newUnlimitedProvider(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimitRPM > 0 {
		return NewRateLimitedProvider(provider, cfg.RateLimitRPM), nil
	}
	return provider, nil
}

func newUnlimitedProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		apiKey := config.ResolveAPIKey(config.ProviderAnthropic, cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("Anthropic API key not found: set %s", config.APIKeyEnvVar(config.ProviderAnthropic))
		}
		return NewAnthropicProvider(apiKey, cfg.Model), nil

	case config.ProviderOpenAI:
		apiKey := config.ResolveAPIKey(config.ProviderOpenAI, cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key not found: set %s", config.APIKeyEnvVar(config.ProviderOpenAI))
		}
		return NewOpenAIProvider(apiKey, cfg.Model), nil

	case config.ProviderGoogle:
		apiKey := config.ResolveAPIKey(config.ProviderGoogle, cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("Google API key not found: set %s", config.APIKeyEnvVar(config.ProviderGoogle))
		}
		return NewGoogleProvider(apiKey, cfg.Model), nil

	case config.ProviderQwen:
		apiKey := config.ResolveAPIKey(config.ProviderQwen, cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("Dashscope API key not found: set %s", config.APIKeyEnvVar(config.ProviderQwen))
		}
		return NewQwenProvider(apiKey, cfg.Model), nil

	case config.ProviderAzure:
		apiKey := config.ResolveAPIKey(config.ProviderAzure, cfg.APIKey)
		if apiKey == "" {
			return nil, fmt.Errorf("Azure OpenAI API key not found: set %s", config.APIKeyEnvVar(config.ProviderAzure))
		}
		if cfg.AzureBaseURL == "" || cfg.AzureDeployment == "" {
			return nil, fmt.Errorf("azure provider requires azure_base_url and azure_deployment")
		}
		return NewAzureProvider(apiKey, cfg.AzureBaseURL, cfg.AzureDeployment, cfg.AzureAPIVersion), nil

	case config.ProviderOllama:
		host := cfg.OllamaHost
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, cfg.Model), nil

	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Provider)
	}
}
