package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type openAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a chat-completions provider. A BaseURL points it at any
// OpenAI-compatible API.
func NewOpenAI(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openAIProvider{client: openai.NewClientWithConfig(oc), model: model}, nil
}

func (p *openAIProvider) Name() string { return "openai" }

func (p *openAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	var msgs []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.Prompt})

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyResponse
	}
	out := &CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		TokensUsed:   resp.Usage.TotalTokens,
		PromptTokens: resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
		Provider:     p.Name(),
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}
