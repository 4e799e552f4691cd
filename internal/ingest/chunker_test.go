package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hyperjump/loco/internal/embedding"
)

func TestSplitSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "terminal punctuation",
			text: "Paris is in France. Berlin is in Germany! Where is Rome?",
			want: []string{"Paris is in France.", "Berlin is in Germany!", "Where is Rome?"},
		},
		{
			name: "trailing fragment kept",
			text: "First sentence. And a trailing fragment",
			want: []string{"First sentence.", "And a trailing fragment"},
		},
		{
			name: "no split inside tokens",
			text: "Version 1.5 shipped today. It works.",
			want: []string{"Version 1.5 shipped today.", "It works."},
		},
		{
			name: "newlines as separators",
			text: "One.\nTwo.\nThree.",
			want: []string{"One.", "Two.", "Three."},
		},
		{
			name: "whitespace only",
			text: "   \n\t  ",
			want: nil,
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitSentences(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d sentences %v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sentence %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSemanticChunker_EmptyInput(t *testing.T) {
	chunker := NewSemanticChunker(embedding.NewMockEmbedder(64))
	_, err := chunker.Chunk(context.Background(), "  \n ", 0.7)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestSemanticChunker_SingleSentence(t *testing.T) {
	chunker := NewSemanticChunker(embedding.NewMockEmbedder(64))
	chunks, err := chunker.Chunk(context.Background(), "Just one sentence.", 0.99)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 || chunks[0] != "Just one sentence." {
		t.Errorf("chunks = %v, want single original sentence", chunks)
	}
}

func TestSemanticChunker_ThresholdZeroKeepsOneChunk(t *testing.T) {
	chunker := NewSemanticChunker(embedding.NewMockEmbedder(64))
	text := "Alpha beta gamma. Delta epsilon. Zeta eta theta."
	chunks, err := chunker.Chunk(context.Background(), text, 0)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks at threshold 0, want 1", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("chunk = %q, want joined original %q", chunks[0], text)
	}
}

func TestSemanticChunker_ReconstructsInput(t *testing.T) {
	chunker := NewSemanticChunker(embedding.NewMockEmbedder(64))
	sentences := []string{
		"The sun is a star.",
		"Stars fuse hydrogen into helium.",
		"Bread is made from flour.",
		"Yeast makes dough rise.",
	}
	text := strings.Join(sentences, " ")

	for _, threshold := range []float64{0, 0.3, 0.7, 0.95} {
		chunks, err := chunker.Chunk(context.Background(), text, threshold)
		if err != nil {
			t.Fatalf("Chunk(threshold=%v): %v", threshold, err)
		}
		if got := strings.Join(chunks, " "); got != text {
			t.Errorf("threshold %v: joined chunks = %q, want %q", threshold, got, text)
		}
	}
}

func TestSemanticChunker_MonotonicInThreshold(t *testing.T) {
	chunker := NewSemanticChunker(embedding.NewMockEmbedder(64))
	text := "The sun is a star. Stars fuse hydrogen. Bread needs flour. Yeast makes it rise. Ovens bake it."

	prev := 0
	for _, threshold := range []float64{0, 0.25, 0.5, 0.75, 1} {
		chunks, err := chunker.Chunk(context.Background(), text, threshold)
		if err != nil {
			t.Fatalf("Chunk(threshold=%v): %v", threshold, err)
		}
		if len(chunks) < prev {
			t.Errorf("threshold %v produced %d chunks, fewer than %d at lower threshold", threshold, len(chunks), prev)
		}
		prev = len(chunks)
	}
}

// fixedEmbedder returns pre-assigned vectors per input text, so boundary
// placement can be asserted exactly.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for text")
	}
	return v, nil
}

func (f *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int { return 2 }
func (f *fixedEmbedder) Close() error    { return nil }

func TestSemanticChunker_BoundaryAtSimilarityDrop(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"France is in Europe.":        {1, 0},
		"Paris is its capital.":       {0.9, 0.1},
		"Photosynthesis needs light.": {0, 1},
	}}
	chunker := NewSemanticChunker(emb)
	text := "France is in Europe. Paris is its capital. Photosynthesis needs light."

	chunks, err := chunker.Chunk(context.Background(), text, 0.7)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	want := []string{
		"France is in Europe. Paris is its capital.",
		"Photosynthesis needs light.",
	}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks %v, want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestSemanticChunker_StrictThresholdComparison(t *testing.T) {
	// Similarity exactly equal to the threshold must NOT split.
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"First.":  {1, 0},
		"Second.": {1, 0},
	}}
	chunker := NewSemanticChunker(emb)

	chunks, err := chunker.Chunk(context.Background(), "First. Second.", 1.0)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("similarity == threshold split the chunk: got %d chunks", len(chunks))
	}
}
