package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/vector"
)

// Ingestor turns raw document text into stored, indexed chunks. A document is
// ingested atomically: either all of its chunks land in the store and both
// indices, or none do.
type Ingestor struct {
	storage  storage.Storage
	embedder embedding.Embedder
	vectors  vector.Index
	keywords keyword.Index
	chunker  *SemanticChunker
	logger   *zap.Logger
}

// NewIngestor creates an ingestor wiring the store, both indices and the
// semantic chunker together.
func NewIngestor(store storage.Storage, embedder embedding.Embedder, vectors vector.Index, keywords keyword.Index, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		storage:  store,
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		chunker:  NewSemanticChunker(embedder),
		logger:   logger,
	}
}

// Ingest chunks, embeds and indexes one document. sourceLabel is the name
// cited back to users in query answers. Returns the number of chunks written.
// On any partial failure the document's writes are rolled back before the
// error is returned.
func (in *Ingestor) Ingest(ctx context.Context, docID, text, sourceLabel string, threshold float64) (int, error) {
	texts, err := in.chunker.Chunk(ctx, text, threshold)
	if err != nil {
		return 0, err
	}

	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}

	now := time.Now()
	chunks := make([]*models.Chunk, len(texts))
	ids := make([]string, len(texts))
	for i, t := range texts {
		id := fmt.Sprintf("%s_%s", docID, uuid.New().String()[:8])
		chunks[i] = &models.Chunk{
			ID:          id,
			DocumentID:  docID,
			Text:        t,
			Embedding:   vectors[i],
			SourceLabel: sourceLabel,
			Position:    i,
			CreatedAt:   now,
		}
		ids[i] = id
	}

	doc := &models.Document{ID: docID, Filename: sourceLabel, CreatedAt: now}
	if err := in.storage.CreateDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("failed to create document: %w", err)
	}
	if err := in.storage.BatchCreateChunks(ctx, chunks); err != nil {
		in.rollback(ctx, docID, nil)
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}
	if err := in.vectors.Add(ctx, ids, vectors); err != nil {
		in.rollback(ctx, docID, nil)
		return 0, fmt.Errorf("failed to index vectors: %w", err)
	}
	if err := in.keywords.IndexBatch(ctx, chunks); err != nil {
		in.rollback(ctx, docID, ids)
		return 0, fmt.Errorf("failed to index keywords: %w", err)
	}

	in.logger.Info("Document ingested",
		zap.String("document_id", docID),
		zap.String("source", sourceLabel),
		zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// rollback undoes a partially ingested document. vectorIDs is nil when the
// vector index was never written. Cleanup failures are logged, not returned;
// the original ingest error is what the caller needs to see.
func (in *Ingestor) rollback(ctx context.Context, docID string, vectorIDs []string) {
	if vectorIDs != nil {
		if err := in.vectors.Remove(ctx, vectorIDs); err != nil {
			in.logger.Warn("Rollback: failed to remove vectors", zap.String("document_id", docID), zap.Error(err))
		}
	}
	if err := in.storage.DeleteDocument(ctx, docID); err != nil {
		in.logger.Warn("Rollback: failed to delete document", zap.String("document_id", docID), zap.Error(err))
	}
}
