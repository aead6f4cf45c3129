package llm

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

// geminiServer answers generateContent and batchEmbedContents with the
// given bodies and records the last request body.
func geminiServer(t *testing.T, status int, generate, embed string, lastBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if lastBody != nil {
			*lastBody = string(body)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.WriteHeader(status)
			_, _ = w.Write([]byte(generate))
		case strings.HasSuffix(r.URL.Path, ":batchEmbedContents"):
			w.WriteHeader(status)
			_, _ = w.Write([]byte(embed))
		default:
			t.Errorf("unexpected request path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewGeminiProvider(t *testing.T) {
	if _, err := NewGeminiProvider(context.Background(), Config{Provider: ProviderGemini}); err == nil {
		t.Error("expected error for missing API key")
	}

	p, err := NewGeminiProvider(context.Background(), Config{Provider: ProviderGemini, APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	if p.Name() != ProviderGemini || p.model != "gemini-2.0-flash" {
		t.Errorf("Name()=%q model=%q", p.Name(), p.model)
	}
}

func TestGeminiProviderComplete(t *testing.T) {
	var body string
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"TRANSLATION:\nVanakkam"}]},"finishReason":"STOP"}]}`,
		"", &body)

	p, err := NewGeminiProvider(context.Background(), Config{
		Provider:    ProviderGemini,
		APIKey:      "test-key",
		BaseURL:     srv.URL,
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}

	reply, err := p.Complete(context.Background(), "system prompt", "Hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if reply != "TRANSLATION:\nVanakkam" {
		t.Errorf("reply = %q", reply)
	}
	for _, want := range []string{"system prompt", "Hello", "4096"} {
		if !strings.Contains(body, want) {
			t.Errorf("request body missing %q: %s", want, body)
		}
	}
}

func TestGeminiProviderEmptyReply(t *testing.T) {
	srv := geminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"  "}]},"finishReason":"STOP"}]}`,
		"", nil)

	p, err := NewGeminiProvider(context.Background(), Config{Provider: ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Complete(context.Background(), "s", "u"); !errors.Is(err, ErrEmptyReply) {
		t.Errorf("Complete() error = %v, want ErrEmptyReply", err)
	}
}

func TestGeminiProviderCompleteError(t *testing.T) {
	srv := geminiServer(t, http.StatusInternalServerError,
		`{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`, "", nil)

	p, err := NewGeminiProvider(context.Background(), Config{Provider: ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Complete(context.Background(), "s", "u")
	if err == nil || !strings.Contains(err.Error(), "gemini API error") {
		t.Errorf("Complete() error = %v, want provider prefix", err)
	}
}

func TestGeminiEmbedder(t *testing.T) {
	var body string
	srv := geminiServer(t, http.StatusOK, "",
		`{"embeddings":[{"values":[3,4]},{"values":[0,2]}]}`, &body)

	e, err := NewGeminiEmbedder(context.Background(), EmbeddingConfig{Provider: ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewGeminiEmbedder: %v", err)
	}
	if e.Name() != ProviderGemini || e.model != "text-embedding-004" {
		t.Errorf("Name()=%q model=%q", e.Name(), e.model)
	}

	vecs, err := e.Embed(context.Background(), []string{"pongal", "kolam"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors", len(vecs))
	}
	if math.Abs(float64(vecs[0][0])-0.6) > 1e-6 || math.Abs(float64(vecs[0][1])-0.8) > 1e-6 {
		t.Errorf("vector 0 = %v, want normalised [0.6 0.8]", vecs[0])
	}
	if vecs[1][0] != 0 || vecs[1][1] != 1 {
		t.Errorf("vector 1 = %v, want [0 1]", vecs[1])
	}
	if !strings.Contains(body, "pongal") || !strings.Contains(body, "kolam") {
		t.Errorf("request body missing texts: %s", body)
	}
}

func TestGeminiEmbedderCountMismatch(t *testing.T) {
	srv := geminiServer(t, http.StatusOK, "", `{"embeddings":[{"values":[1,0]}]}`, nil)

	e, err := NewGeminiEmbedder(context.Background(), EmbeddingConfig{Provider: ProviderGemini, APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Embed(context.Background(), []string{"a", "b"})
	if err == nil || !strings.Contains(err.Error(), "got 1 vectors for 2 inputs") {
		t.Errorf("Embed() error = %v, want count mismatch", err)
	}
}

func TestGeminiEmbedderEmptyInput(t *testing.T) {
	e, err := NewGeminiEmbedder(context.Background(), EmbeddingConfig{Provider: ProviderGemini, APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("Embed(nil) = %v, %v", vecs, err)
	}
}

func TestGeminiProvider_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	p, err := NewGeminiProvider(context.Background(), Config{Provider: ProviderGemini, APIKey: apiKey, MaxTokens: 64})
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	reply, err := p.Complete(context.Background(), "Reply with the single word: pong", "ping")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	t.Logf("reply: %s", reply)
}
