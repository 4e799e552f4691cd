package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultTimeout = 30 * time.Second

// OllamaEmbedder produces embeddings through a local Ollama server.
type OllamaEmbedder struct {
	embedder   *embeddings.EmbedderImpl
	dimensions int
	timeout    time.Duration
}

// NewOllamaEmbedder creates an embedder backed by the Ollama server at baseURL
// using the given model. dimensions is the expected vector length; responses
// with a different length are rejected so the store never mixes dimensionalities.
func NewOllamaEmbedder(baseURL, model string, dimensions int) (*OllamaEmbedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return &OllamaEmbedder{
		embedder:   embedder,
		dimensions: dimensions,
		timeout:    defaultTimeout,
	}, nil
}

// Embed returns the embedding vector for text.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	if len(vec) != e.dimensions {
		return nil, &ServiceError{Err: fmt.Errorf("model returned %d dimensions, expected %d", len(vec), e.dimensions)}
	}
	return vec, nil
}

// EmbedBatch returns embeddings for texts, one per input, in input order.
func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout*time.Duration(1+len(texts)/10))
	defer cancel()
	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	if len(vecs) != len(texts) {
		return nil, &ServiceError{Err: fmt.Errorf("got %d embeddings for %d texts", len(vecs), len(texts))}
	}
	for _, vec := range vecs {
		if len(vec) != e.dimensions {
			return nil, &ServiceError{Err: fmt.Errorf("model returned %d dimensions, expected %d", len(vec), e.dimensions)}
		}
	}
	return vecs, nil
}

// Dimensions returns the embedding dimension.
func (e *OllamaEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for OllamaEmbedder.
func (e *OllamaEmbedder) Close() error {
	return nil
}
