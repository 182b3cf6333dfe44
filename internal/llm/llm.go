// Package llm is the narrator's view of a text-completion provider. Providers
// are created by name through a Registry, so adding one never touches the
// call sites that dispatch prompts.
package llm

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"sync"
)

var (
	ErrUnknownProvider = errors.New("llm: unknown provider")
	ErrMissingAPIKey   = errors.New("llm: api key not configured")
	ErrEmptyResponse   = errors.New("llm: empty completion")
)

// CompletionRequest is a single, non-streaming completion.
type CompletionRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	Model        string  `json:"model,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}

// CompletionResponse carries the text and its usage.
type CompletionResponse struct {
	Text         string `json:"text"`
	TokensUsed   int    `json:"tokens_used"`
	PromptTokens int    `json:"prompt_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	Model        string `json:"model,omitempty"`
	Provider     string `json:"provider,omitempty"`
}

// Provider completes prompts.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

func (f ProviderFunc) Name() string { return "func" }

func (f ProviderFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

// Config is what a factory needs to build a provider, typically taken from a
// stored LLM configuration row.
type Config struct {
	Provider   string
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Factory builds a provider from cfg.
type Factory func(cfg Config) (Provider, error)

// Registry maps provider names to factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry knows the OpenAI-compatible and Anthropic providers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("openai", NewOpenAI)
	r.Register("openai-compatible", NewOpenAI)
	r.Register("anthropic", NewAnthropic)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(name)] = f
}

// New builds the provider named by cfg.Provider.
func (r *Registry) New(cfg Config) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(cfg.Provider)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownProvider
	}
	return f(cfg)
}

// Names lists registered providers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for n := range r.factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Static returns a factory that always yields p. Useful for wiring a fixed
// provider, e.g. in tests.
func Static(p Provider) Factory {
	return func(Config) (Provider, error) { return p, nil }
}
