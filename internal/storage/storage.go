// Package storage defines the persistence interface for ingested documents
// and their chunks.
package storage

import (
	"context"

	"github.com/documind/documind/internal/models"
)

// Storage defines document and chunk persistence operations. It is the
// durable registry of what has been ingested; retrieval itself runs against
// the vector index.
type Storage interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	CreateChunks(ctx context.Context, chunks []models.Chunk) error
	GetChunksByDocumentID(ctx context.Context, docID string) ([]models.Chunk, error)
	DeleteChunksByDocumentID(ctx context.Context, docID string) error

	CountDocuments(ctx context.Context) (int64, error)
	CountChunks(ctx context.Context) (int64, error)

	Close() error
}
