// Package embedding provides text embedding via an external embedding service.
package embedding

import "context"

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// ServiceError wraps a failure of the embedding service (unreachable, model
// not loaded, malformed response). Not retried by the pipeline.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "embedding service: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
