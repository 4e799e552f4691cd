package retrieval

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/vector"
)

type retrievalFixture struct {
	retriever *Retriever
	storage   storage.Storage
	vectors   vector.Index
	keywords  keyword.Index
	embedder  embedding.Embedder
}

func newFixture(t *testing.T) *retrievalFixture {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "loco.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	keywords, err := keyword.NewBleveIndex(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	t.Cleanup(func() { keywords.Close() })

	emb := embedding.NewMockEmbedder(64)
	vectors, err := vector.NewMemoryIndex(64)
	if err != nil {
		t.Fatalf("NewMemoryIndex: %v", err)
	}
	fuser := WeightedSumFuser{VectorWeight: 0.5, LexicalWeight: 0.5}

	return &retrievalFixture{
		retriever: NewRetriever(emb, vectors, keywords, store, fuser, 50, zap.NewNop()),
		storage:   store,
		vectors:   vectors,
		keywords:  keywords,
		embedder:  emb,
	}
}

func (f *retrievalFixture) addChunk(t *testing.T, id, text, source string) {
	t.Helper()
	ctx := context.Background()
	doc := &models.Document{ID: "doc-" + id, Filename: source, CreatedAt: time.Now()}
	if err := f.storage.CreateDocument(ctx, doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	chunk := &models.Chunk{ID: id, DocumentID: doc.ID, Text: text, SourceLabel: source, CreatedAt: time.Now()}
	if err := f.storage.BatchCreateChunks(ctx, []*models.Chunk{chunk}); err != nil {
		t.Fatalf("BatchCreateChunks: %v", err)
	}
	vec, err := f.embedder.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if err := f.vectors.Add(ctx, []string{id}, [][]float32{vec}); err != nil {
		t.Fatalf("vector Add: %v", err)
	}
	if err := f.keywords.Index(ctx, chunk); err != nil {
		t.Fatalf("keyword Index: %v", err)
	}
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	f := newFixture(t)
	hits, err := f.retriever.Retrieve(context.Background(), "anything at all", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("got %d hits from empty corpus, want 0", len(hits))
	}
}

func TestRetriever_ReturnsMatchingChunk(t *testing.T) {
	f := newFixture(t)
	f.addChunk(t, "c1", "Paris is the capital of France.", "france.txt")
	f.addChunk(t, "c2", "Photosynthesis converts sunlight into energy.", "biology.txt")

	hits, err := f.retriever.Retrieve(context.Background(), "Paris is the capital of France.", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("no hits")
	}
	if hits[0].Chunk.ID != "c1" {
		t.Errorf("top hit = %q, want c1", hits[0].Chunk.ID)
	}
	if hits[0].Chunk.Text == "" {
		t.Error("top hit chunk text not hydrated from storage")
	}
	if hits[0].Chunk.SourceLabel != "france.txt" {
		t.Errorf("top hit source = %q, want france.txt", hits[0].Chunk.SourceLabel)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Combined > hits[i-1].Combined {
			t.Errorf("hits not sorted: %v before %v", hits[i-1].Combined, hits[i].Combined)
		}
	}
}

func TestRetriever_TopKTruncation(t *testing.T) {
	f := newFixture(t)
	f.addChunk(t, "c1", "gravity pulls objects together", "physics.txt")
	f.addChunk(t, "c2", "gravity bends light", "physics.txt")
	f.addChunk(t, "c3", "gravity is a fundamental force", "physics.txt")

	hits, err := f.retriever.Retrieve(context.Background(), "gravity", 2)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2", len(hits))
	}
}

func TestRetriever_Deterministic(t *testing.T) {
	f := newFixture(t)
	f.addChunk(t, "c1", "the moon orbits the earth", "astro.txt")
	f.addChunk(t, "c2", "the earth orbits the sun", "astro.txt")
	f.addChunk(t, "c3", "comets orbit the sun too", "astro.txt")

	first, err := f.retriever.Retrieve(context.Background(), "what orbits the sun", 3)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := f.retriever.Retrieve(context.Background(), "what orbits the sun", 3)
		if err != nil {
			t.Fatalf("Retrieve: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d returned %d hits, first run %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j].Chunk.ID != first[j].Chunk.ID {
				t.Errorf("run %d position %d = %q, first run %q", i, j, again[j].Chunk.ID, first[j].Chunk.ID)
			}
		}
	}
}

func TestFuse_TieBreaksByVectorRankThenID(t *testing.T) {
	f := newFixture(t)

	vectorHits := []*vector.Result{
		{ID: "b", Score: 0.9},
		{ID: "a", Score: 0.9},
	}
	hits := f.retriever.fuse(vectorHits, nil)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Equal combined scores: the chunk ranked higher by vector search wins.
	if hits[0].Chunk.ID != "b" || hits[1].Chunk.ID != "a" {
		t.Errorf("order = [%s %s], want [b a]", hits[0].Chunk.ID, hits[1].Chunk.ID)
	}

	lexicalHits := []*keyword.Result{
		{ID: "d", Score: 1.5},
		{ID: "c", Score: 1.5},
	}
	hits = f.retriever.fuse(nil, lexicalHits)
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	// Neither appears in the vector list, so chunk ID decides.
	if hits[0].Chunk.ID != "c" || hits[1].Chunk.ID != "d" {
		t.Errorf("order = [%s %s], want [c d]", hits[0].Chunk.ID, hits[1].Chunk.ID)
	}
}
