package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/loco/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStorage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedDocument(t *testing.T, s *SQLiteStorage, docID, filename string, texts []string) {
	t.Helper()
	ctx := context.Background()
	if err := s.CreateDocument(ctx, &models.Document{ID: docID, Filename: filename}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	chunks := make([]*models.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &models.Chunk{
			ID:          docID + "_" + string(rune('a'+i)),
			DocumentID:  docID,
			Text:        text,
			SourceLabel: filename,
			Position:    i,
		}
	}
	if err := s.BatchCreateChunks(ctx, chunks); err != nil {
		t.Fatalf("BatchCreateChunks: %v", err)
	}
}

func TestSQLiteStorage_DocumentRoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	seedDocument(t, s, "doc1", "paris.txt", []string{"one", "two"})

	doc, err := s.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Filename != "paris.txt" {
		t.Errorf("filename = %q", doc.Filename)
	}

	chunks, err := s.GetChunksByDocumentID(ctx, "doc1")
	if err != nil {
		t.Fatalf("GetChunksByDocumentID: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Position != 0 || chunks[1].Position != 1 {
		t.Error("chunks not ordered by position")
	}
	if chunks[0].SourceLabel != "paris.txt" {
		t.Errorf("source label = %q", chunks[0].SourceLabel)
	}
}

func TestSQLiteStorage_GetMissing(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	if _, err := s.GetDocument(ctx, "nope"); err == nil {
		t.Error("expected error for missing document")
	}
	if _, err := s.GetChunk(ctx, "nope"); err == nil {
		t.Error("expected error for missing chunk")
	}
}

func TestSQLiteStorage_DeleteDocumentCascades(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	seedDocument(t, s, "doc1", "a.txt", []string{"one", "two", "three"})

	if err := s.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	n, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if n != 0 {
		t.Errorf("chunks after cascade delete = %d, want 0", n)
	}
}

func TestSQLiteStorage_DeleteBySource(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	seedDocument(t, s, "doc1", "keep.txt", []string{"keep me"})
	seedDocument(t, s, "doc2", "drop.txt", []string{"drop one", "drop two"})

	ids, err := s.ChunkIDsBySource(ctx, "drop.txt")
	if err != nil {
		t.Fatalf("ChunkIDsBySource: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d chunk ids, want 2", len(ids))
	}

	if err := s.DeleteBySource(ctx, "drop.txt"); err != nil {
		t.Fatalf("DeleteBySource: %v", err)
	}
	docs, err := s.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if docs != 1 {
		t.Errorf("documents = %d, want 1 (orphaned document removed)", docs)
	}
	chunks, err := s.CountChunks(ctx)
	if err != nil {
		t.Fatalf("CountChunks: %v", err)
	}
	if chunks != 1 {
		t.Errorf("chunks = %d, want 1", chunks)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	seedDocument(t, s, "doc1", "a.txt", []string{"x"})
	seedDocument(t, s, "doc2", "b.txt", []string{"y", "z"})

	docs, _ := s.CountDocuments(ctx)
	chunks, _ := s.CountChunks(ctx)
	if docs != 2 || chunks != 3 {
		t.Errorf("counts = %d docs, %d chunks; want 2, 3", docs, chunks)
	}

	list, err := s.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("listed = %d, want 2", len(list))
	}
}
