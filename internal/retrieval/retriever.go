package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/embedding"
	"github.com/hyperjump/loco/internal/keyword"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/storage"
	"github.com/hyperjump/loco/internal/vector"
)

// Hit is one retrieved chunk with its component and fused scores.
type Hit struct {
	Chunk        *models.Chunk
	VectorScore  float64
	LexicalScore float64
	Combined     float64
}

// Retriever runs hybrid search: the question is embedded and matched against
// the vector index while the raw text is matched against the keyword index,
// then both score lists are normalized and fused into one ranking.
type Retriever struct {
	embedder   embedding.Embedder
	vectors    vector.Index
	keywords   keyword.Index
	storage    storage.Storage
	fuser      Fuser
	candidates int
	logger     *zap.Logger
}

// NewRetriever creates a retriever. candidates is how many hits each index
// contributes before fusion; it bounds work, not the final result size.
func NewRetriever(embedder embedding.Embedder, vectors vector.Index, keywords keyword.Index, store storage.Storage, fuser Fuser, candidates int, logger *zap.Logger) *Retriever {
	return &Retriever{
		embedder:   embedder,
		vectors:    vectors,
		keywords:   keywords,
		storage:    store,
		fuser:      fuser,
		candidates: candidates,
		logger:     logger,
	}
}

// Retrieve returns the topK best chunks for the question. An empty corpus
// yields an empty slice, not an error. The ranking is deterministic: ties on
// combined score break by vector rank, then by chunk ID.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]*Hit, error) {
	queryVector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	var (
		wg          sync.WaitGroup
		vectorHits  []*vector.Result
		lexicalHits []*keyword.Result
		vectorErr   error
		lexicalErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = r.vectors.Search(ctx, queryVector, r.candidates)
	}()
	go func() {
		defer wg.Done()
		lexicalHits, lexicalErr = r.keywords.Search(ctx, question, r.candidates)
	}()
	wg.Wait()
	if vectorErr != nil {
		return nil, fmt.Errorf("vector search failed: %w", vectorErr)
	}
	if lexicalErr != nil {
		return nil, fmt.Errorf("keyword search failed: %w", lexicalErr)
	}

	hits := r.fuse(vectorHits, lexicalHits)
	if len(hits) == 0 {
		return []*Hit{}, nil
	}
	if topK < len(hits) {
		hits = hits[:topK]
	}

	for _, hit := range hits {
		chunk, err := r.storage.GetChunk(ctx, hit.Chunk.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %s: %w", hit.Chunk.ID, err)
		}
		hit.Chunk = chunk
	}

	r.logger.Debug("Hybrid retrieval",
		zap.Int("vector_hits", len(vectorHits)),
		zap.Int("lexical_hits", len(lexicalHits)),
		zap.Int("returned", len(hits)))
	return hits, nil
}

// fuse normalizes both score lists, merges them by chunk ID and sorts the
// union by combined score.
func (r *Retriever) fuse(vectorHits []*vector.Result, lexicalHits []*keyword.Result) []*Hit {
	vectorScores := make([]float64, len(vectorHits))
	for i, h := range vectorHits {
		vectorScores[i] = h.Score
	}
	lexicalScores := make([]float64, len(lexicalHits))
	for i, h := range lexicalHits {
		lexicalScores[i] = h.Score
	}
	minMaxNormalize(vectorScores)
	minMaxNormalize(lexicalScores)

	byID := make(map[string]*Hit, len(vectorHits)+len(lexicalHits))
	vectorRank := make(map[string]int, len(vectorHits))
	for i, h := range vectorHits {
		byID[h.ID] = &Hit{Chunk: &models.Chunk{ID: h.ID}, VectorScore: vectorScores[i]}
		vectorRank[h.ID] = i
	}
	for i, h := range lexicalHits {
		hit, ok := byID[h.ID]
		if !ok {
			hit = &Hit{Chunk: &models.Chunk{ID: h.ID}}
			byID[h.ID] = hit
		}
		hit.LexicalScore = lexicalScores[i]
	}

	hits := make([]*Hit, 0, len(byID))
	for _, hit := range byID {
		hit.Combined = r.fuser.Fuse(hit.VectorScore, hit.LexicalScore)
		hits = append(hits, hit)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Combined != hits[j].Combined {
			return hits[i].Combined > hits[j].Combined
		}
		ri, iOK := vectorRank[hits[i].Chunk.ID]
		rj, jOK := vectorRank[hits[j].Chunk.ID]
		if iOK && jOK && ri != rj {
			return ri < rj
		}
		if iOK != jOK {
			return iOK
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})
	return hits
}
