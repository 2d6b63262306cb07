package search

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/fabfab/ddq-agent/embeddings"
)

// PgvectorSearcher retrieves snippets by vector similarity over a locally
// indexed document corpus. The question is embedded first, then matched
// against chunk embeddings.
type PgvectorSearcher struct {
	pool     *pgxpool.Pool
	embedder embeddings.Embedder
}

func NewPgvectorSearcher(pool *pgxpool.Pool, embedder embeddings.Embedder) *PgvectorSearcher {
	return &PgvectorSearcher{pool: pool, embedder: embedder}
}

func (s *PgvectorSearcher) Search(ctx context.Context, query string, opts Options) (Result, error) {
	if s.pool == nil {
		return Result{}, fmt.Errorf("postgres pool is nil")
	}
	if s.embedder == nil {
		return Result{}, fmt.Errorf("embedder is not configured")
	}

	top := opts.Top
	if top <= 0 {
		top = defaultTop
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("embed question: %w", err)
	}
	if len(vector) == 0 {
		return Result{}, fmt.Errorf("embedder returned an empty vector")
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	probes := top * 10
	if probes < 10 {
		probes = 10
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf("SET ivfflat.probes = %d", probes)); err != nil {
		return Result{}, fmt.Errorf("set ivfflat probes: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT
            dc.id,
            dd.title,
            dd.source_path,
            dc.content,
            (dc.embedding <-> $1::vector) AS distance
        FROM ddq_chunks dc
        JOIN ddq_documents dd ON dd.id = dc.document_id
        ORDER BY dc.embedding <-> $1::vector
        LIMIT $2
    `, pgvector.NewVector(vector), top)
	if err != nil {
		return Result{}, fmt.Errorf("query similar chunks: %w", err)
	}
	defer rows.Close()

	snippets := make([]Snippet, 0, top)
	for rows.Next() {
		var snippet Snippet
		var sourcePath string
		var distance float64
		if scanErr := rows.Scan(&snippet.ID, &snippet.Title, &sourcePath, &snippet.Content, &distance); scanErr != nil {
			return Result{}, fmt.Errorf("scan similar chunk: %w", scanErr)
		}
		snippet.SourceFile = filepath.Base(sourcePath)
		snippet.Score = 1 / (1 + distance)
		snippets = append(snippets, snippet)
	}
	if rows.Err() != nil {
		return Result{}, fmt.Errorf("iterate similar chunks: %w", rows.Err())
	}

	return Result{Count: len(snippets), Snippets: snippets}, nil
}

var _ Searcher = (*PgvectorSearcher)(nil)
