package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/vector"
)

// ErrEmptyDocument is returned when a document yields no sentences to chunk.
var ErrEmptyDocument = errors.New("document contains no text")

// SemanticChunker splits text into chunks at semantic boundaries. Consecutive
// sentences stay in the same chunk while their embeddings remain similar; a
// drop below the similarity threshold starts a new chunk.
type SemanticChunker struct {
	embedder embedding.Embedder
}

// NewSemanticChunker creates a chunker backed by the given embedder.
func NewSemanticChunker(embedder embedding.Embedder) *SemanticChunker {
	return &SemanticChunker{embedder: embedder}
}

// Chunk splits text into semantically coherent chunks. threshold is the
// cosine similarity below which a boundary is inserted: 0 keeps everything
// in one chunk, values near 1 split at almost every sentence.
func (c *SemanticChunker) Chunk(ctx context.Context, text string, threshold float64) ([]string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, ErrEmptyDocument
	}
	if len(sentences) == 1 {
		return []string{sentences[0]}, nil
	}

	vectors, err := c.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}

	chunks := make([]string, 0, 4)
	current := []string{sentences[0]}
	for i := 1; i < len(sentences); i++ {
		sim := vector.Cosine(vectors[i-1], vectors[i])
		if sim < threshold {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, sentences[i])
	}
	chunks = append(chunks, strings.Join(current, " "))
	return chunks, nil
}

// splitSentences breaks text into sentences on '.', '!' and '?' followed by
// whitespace. A trailing fragment without terminal punctuation is kept as its
// own sentence. Whitespace-only input yields nil.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if start < len(runes) {
		s := strings.TrimSpace(string(runes[start:]))
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
