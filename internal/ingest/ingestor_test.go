package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/vector"
)

func newTestIngestor(t *testing.T) (*Ingestor, storage.Storage, vector.Index, *keyword.BleveIndex) {
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

	return NewIngestor(store, emb, vectors, keywords, zap.NewNop()), store, vectors, keywords
}

func TestIngestor_Ingest(t *testing.T) {
	ing, store, vectors, keywords := newTestIngestor(t)
	ctx := context.Background()

	text := "Paris is the capital of France. France is in Europe. Photosynthesis converts sunlight."
	n, err := ing.Ingest(ctx, "doc1", text, "france.txt", 0.7)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n < 1 {
		t.Fatalf("chunks written = %d, want >= 1", n)
	}

	doc, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Filename != "france.txt" {
		t.Errorf("Filename = %q, want france.txt", doc.Filename)
	}

	chunks, err := store.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetChunksByDocumentID: %v", err)
	}
	if len(chunks) != n {
		t.Errorf("stored %d chunks, Ingest reported %d", len(chunks), n)
	}
	var joined []string
	for i, chunk := range chunks {
		if chunk.Position != i {
			t.Errorf("chunk %d has position %d", i, chunk.Position)
		}
		if !strings.HasPrefix(chunk.ID, "doc1_") {
			t.Errorf("chunk ID %q not derived from document ID", chunk.ID)
		}
		joined = append(joined, chunk.Text)
	}
	if got := strings.Join(joined, " "); got != text {
		t.Errorf("chunks do not reconstruct input:\ngot  %q\nwant %q", got, text)
	}

	if vectors.Size() != n {
		t.Errorf("vector index size = %d, want %d", vectors.Size(), n)
	}
	count, err := keywords.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if int(count) != n {
		t.Errorf("keyword index count = %d, want %d", count, n)
	}
}

func TestIngestor_EmptyDocument(t *testing.T) {
	ing, store, _, _ := newTestIngestor(t)
	ctx := context.Background()

	_, err := ing.Ingest(ctx, "doc1", "   \n ", "empty.txt", 0.7)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
	if _, err := store.GetDocument(ctx, "doc1"); err == nil {
		t.Error("empty document was persisted")
	}
}

// failingKeywordIndex delegates to a real index but fails batch writes so
// rollback can be observed.
type failingKeywordIndex struct {
	*keyword.BleveIndex
}

func (f *failingKeywordIndex) IndexBatch(ctx context.Context, chunks []*models.Chunk) error {
	return errors.New("keyword index unavailable")
}

func TestIngestor_RollbackOnIndexFailure(t *testing.T) {
	_, store, vectors, keywords := newTestIngestor(t)
	emb := embedding.NewMockEmbedder(64)
	ing := NewIngestor(store, emb, vectors, &failingKeywordIndex{BleveIndex: keywords}, zap.NewNop())
	ctx := context.Background()

	_, err := ing.Ingest(ctx, "doc1", "One sentence. Another sentence.", "a.txt", 0.7)
	if err == nil {
		t.Fatal("Ingest succeeded with failing keyword index")
	}

	if _, getErr := store.GetDocument(ctx, "doc1"); getErr == nil {
		t.Error("document survived rollback")
	}
	count, countErr := store.CountChunks(ctx)
	if countErr != nil {
		t.Fatalf("CountChunks: %v", countErr)
	}
	if count != 0 {
		t.Errorf("chunks survived rollback: %d", count)
	}
	if vectors.Size() != 0 {
		t.Errorf("vectors survived rollback: %d", vectors.Size())
	}
}
