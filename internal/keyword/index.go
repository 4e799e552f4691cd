// Package keyword provides lexical (BM25) indexing and search over chunk text.
package keyword

import (
	"context"

	"github.com/hyperjump/loco/internal/models"
)

// Index defines lexical search operations. IDs are chunk IDs so lexical and
// vector hits merge by chunk identity.
type Index interface {
	Index(ctx context.Context, chunk *models.Chunk) error
	IndexBatch(ctx context.Context, chunks []*models.Chunk) error
	Search(ctx context.Context, query string, limit int) ([]*Result, error)
	Delete(ctx context.Context, ids []string) error
	DocCount() (uint64, error)
	Close() error
}

// Result is a single lexical search hit. Score is the raw BM25 score; scale
// varies with corpus statistics, so callers normalize before fusing.
type Result struct {
	ID    string
	Score float64
}
