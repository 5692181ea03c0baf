// Package models defines core data structures for documents, chunks, and queries.
package models

import "time"

// Document represents an ingested document with metadata.
type Document struct {
	ID        string                 `json:"id" db:"id"`
	Title     string                 `json:"title" db:"title"`
	Content   string                 `json:"content" db:"content"`
	Metadata  map[string]interface{} `json:"metadata" db:"metadata"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt time.Time              `json:"updated_at" db:"updated_at"`
}

// Chunk is a bounded contiguous slice of a document's text, the unit of
// embedding and retrieval. ChunkID is 0-based within one document and
// ChunkCount is the total number of chunks produced from that document.
// Metadata is shared by reference across all chunks of a document and must
// be treated as read-only.
type Chunk struct {
	DocumentID string                 `json:"document_id,omitempty" db:"document_id"`
	Text       string                 `json:"text" db:"content"`
	ChunkID    int                    `json:"chunk_id" db:"chunk_index"`
	ChunkCount int                    `json:"chunk_count" db:"chunk_count"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt  time.Time              `json:"created_at,omitempty" db:"created_at"`
}

// DocumentInput is the input for ingesting a document.
type DocumentInput struct {
	ID       string                 `json:"id,omitempty"`
	Title    string                 `json:"title,omitempty"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IngestResult reports the outcome of an ingestion call.
type IngestResult struct {
	DocumentID      string `json:"document_id"`
	ChunksProcessed int    `json:"chunks_processed"`
}
