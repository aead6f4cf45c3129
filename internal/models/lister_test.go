package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
)

func fakeModelsServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[
			{"id":"llama3-70b-8192","object":"model","owned_by":"Meta"},
			{"id":"whisper-large-v3","object":"model","owned_by":"OpenAI"},
			{"id":"gemma2-9b-it","object":"model","owned_by":"Google"},
			{"id":"text-embedding-3-small","object":"model","owned_by":"openai"},
			{"id":"llama-guard-3-8b","object":"model","owned_by":"Meta"}
		]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewLister(t *testing.T) {
	lister := NewLister("", "test-api-key", "")

	if lister == nil {
		t.Fatal("NewLister returned nil")
	}
	if lister.provider != "groq" {
		t.Errorf("Expected default provider 'groq', got '%s'", lister.provider)
	}
	if lister.client == nil {
		t.Error("OpenAI client not initialized")
	}
}

func TestList(t *testing.T) {
	srv := fakeModelsServer(t)
	lister := NewLister("groq", "test-api-key", srv.URL)

	got, err := lister.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	want := Models{
		Chat:      []string{"gemma2-9b-it", "llama3-70b-8192"},
		Embedding: []string{"text-embedding-3-small"},
		Other:     []string{"llama-guard-3-8b", "whisper-large-v3"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %+v, want %+v", got, want)
	}
}

func TestPrint(t *testing.T) {
	srv := fakeModelsServer(t)
	lister := NewLister("openai", "test-api-key", srv.URL)

	var buf bytes.Buffer
	if err := lister.Print(context.Background(), &buf); err != nil {
		t.Fatalf("Print() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Available openai models:", "Chat/Translation Models:", "  llama3-70b-8192", "Embedding Models:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestList_Errors(t *testing.T) {
	srv := fakeModelsServer(t)

	tests := []struct {
		name   string
		lister *Lister
	}{
		{"no api key", NewLister("groq", "", srv.URL)},
		{"bad api key", NewLister("groq", "wrong", srv.URL)},
		{"gemini", NewLister("gemini", "test-api-key", srv.URL)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.lister.List(context.Background()); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestList_Integration(t *testing.T) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GROQ_API_KEY not set")
	}

	m, err := NewLister("groq", apiKey, "").List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(m.Chat) == 0 {
		t.Error("expected at least one chat model")
	}
}
