package generator

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// AzureProvider implements Provider against an Azure OpenAI deployment,
// reusing go-openai's client with Azure's auth scheme and deployment-scoped
// base URL.
type AzureProvider struct {
	client     *openai.Client
	deployment string
}

// NewAzureProvider creates a new Azure OpenAI provider. baseURL is the
// resource endpoint (e.g. https://<resource>.openai.azure.com/);
// deployment is the deployment name used as the model identifier.
func NewAzureProvider(apiKey, baseURL, deployment, apiVersion string) *AzureProvider {
	cfg := openai.DefaultAzureConfig(apiKey, baseURL)
	if apiVersion != "" {
		cfg.APIVersion = apiVersion
	}
	cfg.AzureModelMapperFunc = func(model string) string {
		return deployment
	}
	return &AzureProvider{
		client:     openai.NewClientWithConfig(cfg),
		deployment: deployment,
	}
}

func (p *AzureProvider) Name() string {
	return "azure-openai"
}

func (p *AzureProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.deployment
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	var messages []openai.ChatCompletionMessage
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}

	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	var content, finishReason string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
		finishReason = string(resp.Choices[0].FinishReason)
	}

	return &CompletionResponse{
		Content:      content,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		FinishReason: finishReason,
	}, nil
}
