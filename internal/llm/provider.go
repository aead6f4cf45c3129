package llm

import (
	"context"
	"errors"
	"strings"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// GroqBaseURL is Groq's OpenAI-compatible endpoint.
	GroqBaseURL = "https://api.groq.com/openai/v1"
)

// ErrEmptyReply is returned when the model answers with no choices.
var ErrEmptyReply = errors.New("model returned no reply")

// ChatProvider sends one system instruction and one user message and
// returns the raw reply text.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

// Embedder maps texts to L2-normalised vectors, one per input, in order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config selects and tunes a chat provider.
type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Temperature float32
	MaxTokens   int
}

// EmbeddingConfig selects an embedding provider.
type EmbeddingConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// DefaultModel returns the chat model used when none is configured.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "llama3-70b-8192"
	}
}

// DefaultEmbeddingModel returns the embedding model used when none is configured.
func DefaultEmbeddingModel(provider string) string {
	if strings.ToLower(provider) == ProviderGemini {
		return "text-embedding-004"
	}
	return "text-embedding-3-small"
}
