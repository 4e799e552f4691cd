// Package retrieval implements hybrid chunk retrieval: vector and keyword
// search run side by side and their scores are fused into one ranking.
package retrieval

// Fuser combines a normalized vector score and a normalized lexical score
// into one combined score. Implementations must be pure so rankings stay
// deterministic across calls.
type Fuser interface {
	Fuse(vectorScore, lexicalScore float64) float64
}

// WeightedSumFuser fuses scores as a weighted sum. A chunk missing from one
// result list contributes 0 for that component.
type WeightedSumFuser struct {
	VectorWeight  float64
	LexicalWeight float64
}

// Fuse returns VectorWeight*vectorScore + LexicalWeight*lexicalScore.
func (f WeightedSumFuser) Fuse(vectorScore, lexicalScore float64) float64 {
	return f.VectorWeight*vectorScore + f.LexicalWeight*lexicalScore
}

// minMaxNormalize rescales scores to [0, 1] in place. When all scores are
// equal the spread is zero and every score maps to 1, so that single-hit
// lists still count as full-strength matches.
func minMaxNormalize(scores []float64) {
	if len(scores) == 0 {
		return
	}
	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	spread := max - min
	for i, s := range scores {
		if spread == 0 {
			scores[i] = 1
		} else {
			scores[i] = (s - min) / spread
		}
	}
}
