package models

import "fmt"

// TopKMax bounds how many sources a query may request.
const TopKMax = 10

// QueryRequest is a question against the knowledge base. TopK of zero means
// "use the configured default"; otherwise it must be within [1, TopKMax].
type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// Validate checks the request fields. Out-of-range TopK is rejected, not clamped.
func (q *QueryRequest) Validate() error {
	if q.Question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	if q.TopK < 0 || q.TopK > TopKMax {
		return fmt.Errorf("top_k must be between 1 and %d", TopKMax)
	}
	return nil
}
