package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/snonux/translore/internal/wiki"
)

// MockChatProvider mocks an LLM chat provider. Replies are keyed by target
// language, found by looking for "to <Language> in" in the system prompt.
type MockChatProvider struct {
	Replies map[string]string
	Errors  map[string]error

	mu    sync.Mutex
	Calls []string
}

func (m *MockChatProvider) Name() string { return "mock" }

// Complete mocks a chat completion
func (m *MockChatProvider) Complete(ctx context.Context, system, user string) (string, error) {
	lang := languageFromPrompt(system)

	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("Complete: %s -> %s", user, lang))
	m.mu.Unlock()

	if err, ok := m.Errors[lang]; ok {
		return "", err
	}
	if reply, ok := m.Replies[lang]; ok {
		return reply, nil
	}

	// Default mock reply
	return fmt.Sprintf("TRANSLATION: mock %s translation of %s\nCULTURAL_CONTEXT: mock context\nIDIOMS: mock idioms", lang, user), nil
}

// CallCount returns how often Complete was called
func (m *MockChatProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

func languageFromPrompt(system string) string {
	const marker = "text to "
	i := strings.Index(system, marker)
	if i < 0 {
		return ""
	}
	rest := system[i+len(marker):]
	if j := strings.Index(rest, " in a "); j >= 0 {
		return rest[:j]
	}
	return ""
}

// MockEmbedder produces bag-of-words vectors over a fixed vocabulary, so
// texts sharing words end up close to each other.
type MockEmbedder struct {
	Vocabulary []string
	Err        error

	mu    sync.Mutex
	Calls int
	Texts int
}

func (m *MockEmbedder) Name() string { return "mock" }

// Embed mocks an embedding request
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.Texts += len(texts)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		words := strings.Fields(strings.ToLower(text))
		vec := make([]float32, len(m.Vocabulary)+1)
		for d, term := range m.Vocabulary {
			for _, w := range words {
				if strings.Trim(w, ".,;:!?") == term {
					vec[d]++
				}
			}
		}
		// Keeps vectors without vocabulary hits non-zero.
		vec[len(m.Vocabulary)] = 0.01
		out[i] = vec
	}
	return out, nil
}

// CallCount returns how often Embed was called
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// MockPageFetcher mocks the Wikipedia client
type MockPageFetcher struct {
	Pages  map[string]*wiki.Page
	Errors map[string]error

	mu    sync.Mutex
	Calls []string
}

// Page mocks fetching an article by search phrase
func (m *MockPageFetcher) Page(ctx context.Context, phrase string) (*wiki.Page, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, phrase)
	m.mu.Unlock()

	if err, ok := m.Errors[phrase]; ok {
		return nil, err
	}
	if p, ok := m.Pages[phrase]; ok {
		return p, nil
	}
	return nil, wiki.ErrNotFound
}

// CallCount returns how often Page was called
func (m *MockPageFetcher) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
