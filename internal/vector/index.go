// Package vector provides vector storage and similarity search over chunk embeddings.
package vector

import "context"

// Index defines vector storage and similarity search. IDs are chunk IDs.
type Index interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*Result, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// Result is a single vector search hit. Score is cosine similarity for
// normalized vectors; higher is always a better match.
type Result struct {
	ID    string
	Score float64
}
