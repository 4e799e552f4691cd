package models

// Reference points from an answer back to the source chunk that supports it.
// Score is the fused retrieval score, higher is better.
type Reference struct {
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Answer is the result of one query: generated text plus ordered references.
// Immutable once built.
type Answer struct {
	Text       string      `json:"answer"`
	References []Reference `json:"references"`
}
