package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"

	"codeberg.org/snonux/translore/internal/llm"
)

// Lister handles listing available models
type Lister struct {
	provider string
	apiKey   string
	client   *openai.Client
}

// NewLister creates a new model lister for an OpenAI-compatible provider
func NewLister(provider, apiKey, baseURL string) *Lister {
	if provider == "" {
		provider = llm.ProviderGroq
	}
	return &Lister{
		provider: provider,
		apiKey:   apiKey,
		client:   llm.NewOpenAIClient(provider, apiKey, baseURL),
	}
}

// Models groups model ids by purpose.
type Models struct {
	Chat      []string
	Embedding []string
	Other     []string
}

// List fetches and categorizes all models of the endpoint
func (l *Lister) List(ctx context.Context) (Models, error) {
	if l.provider == llm.ProviderGemini {
		return Models{}, fmt.Errorf("listing models is not supported for provider %q", l.provider)
	}
	if l.apiKey == "" {
		return Models{}, fmt.Errorf("%s API key not found. Set TRANSLORE_LLM_API_KEY or configure llm.api_key in .translore.yaml", l.provider)
	}

	resp, err := l.client.ListModels(ctx)
	if err != nil {
		return Models{}, fmt.Errorf("failed to list models: %w", err)
	}

	var m Models
	for _, model := range resp.Models {
		switch categorize(model.ID) {
		case "chat":
			m.Chat = append(m.Chat, model.ID)
		case "embedding":
			m.Embedding = append(m.Embedding, model.ID)
		default:
			m.Other = append(m.Other, model.ID)
		}
	}

	sort.Strings(m.Chat)
	sort.Strings(m.Embedding)
	sort.Strings(m.Other)
	return m, nil
}

func categorize(id string) string {
	id = strings.ToLower(id)
	switch {
	case strings.Contains(id, "embed"):
		return "embedding"
	case strings.Contains(id, "whisper"), strings.Contains(id, "tts"), strings.Contains(id, "audio"),
		strings.Contains(id, "dall-e"), strings.Contains(id, "moderation"), strings.Contains(id, "guard"):
		return "other"
	case strings.Contains(id, "gpt"), strings.Contains(id, "llama"), strings.Contains(id, "mixtral"),
		strings.Contains(id, "gemma"), strings.Contains(id, "qwen"), strings.Contains(id, "chat"),
		strings.HasPrefix(id, "o1"), strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
		return "chat"
	default:
		return "other"
	}
}

// Print writes the model list to w
func (l *Lister) Print(ctx context.Context, w io.Writer) error {
	m, err := l.List(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Available %s models:\n", l.provider)
	printGroup(w, "Chat/Translation Models", m.Chat)
	printGroup(w, "Embedding Models", m.Embedding)
	printGroup(w, "Other Models", m.Other)
	return nil
}

func printGroup(w io.Writer, title string, ids []string) {
	fmt.Fprintf(w, "\n%s:\n", title)
	if len(ids) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(w, "  %s\n", id)
	}
}
