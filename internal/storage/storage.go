// Package storage defines the persistence interface for documents and chunks.
package storage

import (
	"context"

	"github.com/hyperjump/loco/internal/models"
)

// Storage defines document and chunk persistence operations. The store
// exclusively owns chunk lifetime; chunks are removed through the bulk
// operations, never mutated in place.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// Chunk operations
	GetChunk(ctx context.Context, id string) (*models.Chunk, error)
	GetChunksByDocumentID(ctx context.Context, docID string) ([]*models.Chunk, error)
	BatchCreateChunks(ctx context.Context, chunks []*models.Chunk) error
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	// Bulk deletion by source label. Returns the IDs of the removed chunks
	// so the caller can purge the vector and keyword indices.
	ChunkIDsBySource(ctx context.Context, sourceLabel string) ([]string, error)
	DeleteBySource(ctx context.Context, sourceLabel string) error

	// Stats
	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
