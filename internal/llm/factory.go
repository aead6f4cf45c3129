package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewChatProvider builds the provider named by cfg.Provider.
func NewChatProvider(ctx context.Context, cfg Config) (ChatProvider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderGroq, ProviderOpenAI:
		cfg.Provider = strings.ToLower(cfg.Provider)
		return NewOpenAIProvider(cfg)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %q", cfg.Provider)
	}
}

// NewEmbedder builds the embedder named by cfg.Provider.
func NewEmbedder(ctx context.Context, cfg EmbeddingConfig) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAIEmbedder(cfg)
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
