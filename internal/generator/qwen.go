package generator

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const qwenBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

// QwenProvider implements Provider against Alibaba Dashscope's
// OpenAI-compatible endpoint, reusing go-openai's client with a custom
// base URL.
type QwenProvider struct {
	client *openai.Client
	model  string
}

// NewQwenProvider creates a new Qwen (Dashscope) provider.
func NewQwenProvider(apiKey string, model string) *QwenProvider {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = qwenBaseURL
	return &QwenProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (p *QwenProvider) Name() string {
	return "qwen"
}

func (p *QwenProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
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
