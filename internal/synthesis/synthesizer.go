// Package synthesis turns retrieved chunks into a cited natural-language
// answer via the generation gateway.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/loco/internal/generation"
	"github.com/hyperjump/loco/internal/models"
	"github.com/hyperjump/loco/internal/retrieval"
)

// NoKnowledgeAnswer is returned verbatim when retrieval finds nothing. The
// generator is never called in that case.
const NoKnowledgeAnswer = "I could not find relevant information in the knowledge base to answer your question."

const contextDelimiter = "\n---\n"

const promptTemplate = `Use the provided context to answer the question. If the answer is not in the context, say you don't know. Provide citations like [Source: filename].

Context:
%s

Question: %s

Answer:`

// Synthesizer builds the generation prompt from ranked hits and shapes the
// model output into an Answer with references.
type Synthesizer struct {
	generator       generation.Generator
	maxContextChars int
	snippetLength   int
	logger          *zap.Logger
}

// NewSynthesizer creates a synthesizer. maxContextChars bounds how much
// chunk text goes into the prompt; snippetLength bounds reference previews.
func NewSynthesizer(gen generation.Generator, maxContextChars, snippetLength int, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		generator:       gen,
		maxContextChars: maxContextChars,
		snippetLength:   snippetLength,
		logger:          logger,
	}
}

// Synthesize produces an answer for the question from the ranked hits. With
// no hits it returns the fixed no-knowledge answer and no references.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, hits []*retrieval.Hit, model string, temperature float64) (*models.Answer, error) {
	if len(hits) == 0 {
		return &models.Answer{Text: NoKnowledgeAnswer, References: []models.Reference{}}, nil
	}

	included := s.fitContext(hits)
	prompt := fmt.Sprintf(promptTemplate, s.buildContext(included), question)

	text, err := s.generator.Generate(ctx, prompt, model, temperature)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	answer := &models.Answer{
		Text:       strings.TrimSpace(text),
		References: make([]models.Reference, 0, len(included)),
	}
	for _, hit := range included {
		answer.References = append(answer.References, models.Reference{
			Source:  hit.Chunk.SourceLabel,
			Snippet: snippet(hit.Chunk.Text, s.snippetLength),
			Score:   hit.Combined,
		})
	}

	s.logger.Debug("Answer synthesized",
		zap.Int("hits", len(hits)),
		zap.Int("included", len(included)),
		zap.Int("answer_chars", len(answer.Text)))
	return answer, nil
}

// fitContext drops whole hits from the low-ranked end until the remaining
// chunk text fits the context budget. The best hit is always kept even when
// it alone exceeds the budget, so the model never sees an empty context.
func (s *Synthesizer) fitContext(hits []*retrieval.Hit) []*retrieval.Hit {
	total := 0
	for i, hit := range hits {
		n := len(hit.Chunk.Text)
		if i > 0 {
			n += len(contextDelimiter)
		}
		if total+n > s.maxContextChars && i > 0 {
			s.logger.Debug("Context budget reached", zap.Int("kept", i), zap.Int("dropped", len(hits)-i))
			return hits[:i]
		}
		total += n
	}
	return hits
}

func (s *Synthesizer) buildContext(hits []*retrieval.Hit) string {
	parts := make([]string, len(hits))
	for i, hit := range hits {
		parts[i] = hit.Chunk.Text
	}
	return strings.Join(parts, contextDelimiter)
}

// snippet truncates text to limit runes, appending "..." when it was cut.
func snippet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
