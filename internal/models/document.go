// Package models defines core data structures for documents, chunks, queries, and answers.
package models

import "time"

// Document groups the chunks produced from one ingested file. It is a
// labelling record, not an owning container: chunks are removed through
// store-level bulk operations, never by mutating the document.
type Document struct {
	ID        string    `json:"id" db:"id"`
	Filename  string    `json:"filename" db:"filename"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Chunk is a topically coherent span of document text. Text is never empty.
// The embedding is held by the vector index keyed by chunk ID; its
// dimensionality is constant across the whole store.
type Chunk struct {
	ID          string    `json:"id" db:"id"`
	DocumentID  string    `json:"document_id" db:"document_id"`
	Text        string    `json:"text" db:"content"`
	Embedding   []float32 `json:"-" db:"-"`
	SourceLabel string    `json:"source_label" db:"source_label"`
	Position    int       `json:"position" db:"position"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IngestResult reports the outcome of one document ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	ChunksWritten int    `json:"chunks_written"`
}
