package search

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabfab/ddq-agent/config"
	"github.com/fabfab/ddq-agent/embeddings"
)

const defaultTop = 3

// Snippet is one retrieval result. Missing optional fields stay zero
// valued; only the ranking order carries meaning between snippets.
type Snippet struct {
	ID         string
	Title      string
	Content    string
	SourceFile string
	Score      float64
	Caption    string
}

type Result struct {
	Count    int
	Snippets []Snippet
}

type Options struct {
	// Filter is a backend-specific restriction (OData syntax for the
	// azure provider); empty means no filter.
	Filter string
	Top    int
}

// Searcher returns ranked snippets for a question.
type Searcher interface {
	Search(ctx context.Context, query string, opts Options) (Result, error)
}

func NewSearcher(ctx context.Context, cfg config.Config) (Searcher, error) {
	switch cfg.Search.Provider {
	case config.SearchProviderAzure:
		if cfg.Search.Service == "" || cfg.Search.Index == "" || cfg.Search.APIKey == "" {
			return nil, fmt.Errorf("azure search provider selected but service, index or API key not set")
		}
		return NewAzureSearcher(AzureOptions{
			Service: cfg.Search.Service,
			Index:   cfg.Search.Index,
			APIKey:  cfg.Search.APIKey,
		}), nil
	case config.SearchProviderPgvector:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("create postgres pool: %w", err)
		}
		embedder, err := embeddings.NewEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("embedder setup: %w", err)
		}
		return NewPgvectorSearcher(pool, embedder), nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Search.Provider)
	}
}
