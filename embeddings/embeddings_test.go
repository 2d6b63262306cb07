package embeddings_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fabfab/ddq-agent/config"
	"github.com/fabfab/ddq-agent/embeddings"
)

func TestNewEmbedderOllama(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingsConfig{
			Provider: config.ProviderOllama,
			Model:    "nomic-embed-text",
		},
		OllamaHost: "http://localhost:11434",
	}

	embedder, err := embeddings.NewEmbedder(cfg)
	if err != nil {
		t.Fatalf("expected embedder, got error: %v", err)
	}
	if embedder == nil {
		t.Fatal("expected non-nil embedder")
	}
}

func TestNewEmbedderOpenAIRequiresAPIKey(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingsConfig{
			Provider: config.ProviderOpenAI,
			Model:    "text-embedding-3-small",
		},
	}

	if _, err := embeddings.NewEmbedder(cfg); err == nil {
		t.Fatal("expected error for missing OPENAI_API_KEY")
	}
}

func TestNewEmbedderRejectsUnknownProvider(t *testing.T) {
	cfg := config.Config{
		Embeddings: config.EmbeddingsConfig{Provider: "cohere"},
	}

	if _, err := embeddings.NewEmbedder(cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOllamaEmbedderChecksDimension(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer ts.Close()

	embedder := embeddings.NewOllamaEmbedder(embeddings.Options{
		OllamaHost: ts.URL,
		Model:      "nomic-embed-text",
		Dimension:  3,
	})

	vec, err := embedder.Embed(context.Background(), "question")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 {
		t.Fatalf("expected 3 dimensions, got %d", len(vec))
	}

	mismatched := embeddings.NewOllamaEmbedder(embeddings.Options{
		OllamaHost: ts.URL,
		Model:      "nomic-embed-text",
		Dimension:  8,
	})
	if _, err := mismatched.Embed(context.Background(), "question"); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}
