package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements ChatProvider for any OpenAI-compatible
// chat-completion endpoint. Groq is selected through its base URL.
type OpenAIProvider struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIProvider creates a chat provider for cfg.Provider "openai" or "groq".
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	name := cfg.Provider
	if name == "" {
		name = ProviderOpenAI
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel(name)
	}

	return &OpenAIProvider{
		name:        name,
		client:      NewOpenAIClient(name, cfg.APIKey, cfg.BaseURL),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// NewOpenAIClient returns a go-openai client for provider, pointing at
// baseURL or the provider's default endpoint.
func NewOpenAIClient(provider, apiKey, baseURL string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL == "" && provider == ProviderGroq {
		baseURL = GroqBaseURL
	}
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config)
}

func (p *OpenAIProvider) Name() string { return p.name }

// Model returns the configured model id.
func (p *OpenAIProvider) Model() string { return p.model }

// Complete sends a system + user message pair and returns the reply text.
func (p *OpenAIProvider) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIEmbedder implements Embedder with the OpenAI embeddings endpoint.
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(cfg EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding API key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel(ProviderOpenAI)
	}
	return &OpenAIEmbedder{
		client: NewOpenAIClient(ProviderOpenAI, cfg.APIKey, cfg.BaseURL),
		model:  model,
	}, nil
}

func (e *OpenAIEmbedder) Name() string { return ProviderOpenAI }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings error: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = Normalize(d.Embedding)
	}
	return out, nil
}
