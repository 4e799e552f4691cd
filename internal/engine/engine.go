// Package engine wires the ingestion and query pipelines together and owns
// the runtime-tunable settings.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/config"
	"github.com/hyperjump/loco/internal/extract"
	"github.com/hyperjump/loco/internal/ingest"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/retrieval"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/synthesis"
	"github.com/hyperjump/loco/internal/vector"
)

// ErrInvalidInput marks caller mistakes: bad query fields, unsupported file
// formats, empty documents, out-of-range settings. The HTTP layer maps it to
// a 400 response.
var ErrInvalidInput = errors.New("invalid input")

// Status reports corpus and index sizes.
type Status struct {
	Documents   int64  `json:"documents"`
	Chunks      int64  `json:"chunks"`
	VectorSize  int    `json:"vector_index_size"`
	KeywordDocs uint64 `json:"keyword_index_size"`
}

// Engine orchestrates ingestion, retrieval and synthesis. Settings reads and
// updates are safe for concurrent use with in-flight operations.
type Engine struct {
	extractor   *extract.Extractor
	ingestor    *ingest.Ingestor
	retriever   *retrieval.Retriever
	synthesizer *synthesis.Synthesizer
	storage     storage.Storage
	vectors     vector.Index
	keywords    keyword.Index
	logger      *zap.Logger

	mu       sync.RWMutex
	settings config.EngineSettings
	persist  func(config.EngineSettings) error
}

// New creates the engine. persist is called with the new settings after every
// successful update; pass nil to skip persistence (tests do).
func New(
	extractor *extract.Extractor,
	ingestor *ingest.Ingestor,
	retriever *retrieval.Retriever,
	synthesizer *synthesis.Synthesizer,
	store storage.Storage,
	vectors vector.Index,
	keywords keyword.Index,
	settings config.EngineSettings,
	persist func(config.EngineSettings) error,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		extractor:   extractor,
		ingestor:    ingestor,
		retriever:   retriever,
		synthesizer: synthesizer,
		storage:     store,
		vectors:     vectors,
		keywords:    keywords,
		settings:    settings,
		persist:     persist,
		logger:      logger,
	}
}

// Ingest extracts text from an uploaded file and runs the ingestion pipeline.
// filename doubles as the source label cited in answers.
func (e *Engine) Ingest(ctx context.Context, filename string, content []byte) (*models.IngestResult, error) {
	text, err := e.extractor.Extract(content, filename)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, err
	}
	return e.IngestText(ctx, text, filename)
}

// IngestText ingests already-extracted text under the given source label.
func (e *Engine) IngestText(ctx context.Context, text, sourceLabel string) (*models.IngestResult, error) {
	docID := uuid.New().String()
	n, err := e.ingestor.Ingest(ctx, docID, text, sourceLabel, e.Settings().ChunkSimilarityThreshold)
	if err != nil {
		if errors.Is(err, ingest.ErrEmptyDocument) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return nil, err
	}
	return &models.IngestResult{DocumentID: docID, Filename: sourceLabel, ChunksWritten: n}, nil
}

// Query answers a question from the ingested corpus. A request TopK of zero
// falls back to the configured default.
func (e *Engine) Query(ctx context.Context, req *models.QueryRequest) (*models.Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	settings := e.Settings()
	topK := req.TopK
	if topK == 0 {
		topK = settings.TopK
	}

	hits, err := e.retriever.Retrieve(ctx, req.Question, topK)
	if err != nil {
		return nil, err
	}
	return e.synthesizer.Synthesize(ctx, req.Question, hits, settings.GenerationModel, settings.Temperature)
}

// DeleteSource removes every chunk ingested under the source label from the
// store and both indices. Deleting an unknown source is a no-op.
func (e *Engine) DeleteSource(ctx context.Context, sourceLabel string) (int, error) {
	ids, err := e.storage.ChunkIDsBySource(ctx, sourceLabel)
	if err != nil {
		return 0, fmt.Errorf("failed to list chunks for source: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := e.storage.DeleteBySource(ctx, sourceLabel); err != nil {
		return 0, fmt.Errorf("failed to delete source: %w", err)
	}
	if err := e.vectors.Remove(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to remove vectors: %w", err)
	}
	if err := e.keywords.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("failed to remove keywords: %w", err)
	}
	e.logger.Info("Source deleted", zap.String("source", sourceLabel), zap.Int("chunks", len(ids)))
	return len(ids), nil
}

// Settings returns a copy of the current engine settings.
func (e *Engine) Settings() config.EngineSettings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

// UpdateSettings applies a patch atomically. Every patched field is checked
// against its range first; an invalid field leaves all settings unchanged.
func (e *Engine) UpdateSettings(patch *models.SettingsPatch) (config.EngineSettings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.settings
	if patch.GenerationModel != nil {
		next.GenerationModel = *patch.GenerationModel
	}
	if patch.Temperature != nil {
		next.Temperature = *patch.Temperature
	}
	if patch.TopK != nil {
		next.TopK = *patch.TopK
	}
	if patch.ChunkSimilarityThreshold != nil {
		next.ChunkSimilarityThreshold = *patch.ChunkSimilarityThreshold
	}
	if err := next.Validate(); err != nil {
		return e.settings, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if e.persist != nil {
		if err := e.persist(next); err != nil {
			return e.settings, fmt.Errorf("failed to persist settings: %w", err)
		}
	}
	e.settings = next
	e.logger.Info("Engine settings updated",
		zap.String("generation_model", next.GenerationModel),
		zap.Float64("temperature", next.Temperature),
		zap.Int("top_k", next.TopK),
		zap.Float64("chunk_similarity_threshold", next.ChunkSimilarityThreshold))
	return next, nil
}

// Status reports document, chunk and index counts.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	docs, err := e.storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := e.storage.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	kwCount, err := e.keywords.DocCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count keyword docs: %w", err)
	}
	return &Status{
		Documents:   docs,
		Chunks:      chunks,
		VectorSize:  e.vectors.Size(),
		KeywordDocs: kwCount,
	}, nil
}

// Supported reports whether the engine can extract text from the file.
func (e *Engine) Supported(filename string) bool {
	return e.extractor.Supported(filename)
}
