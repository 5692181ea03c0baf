// Package embedding provides text embedding behind a small interface, with
// an OpenAI-backed implementation and a deterministic mock for tests.
package embedding

import "context"

// Embedder produces fixed-length vector embeddings for text. Implementations
// must be deterministic for a given input; the cache layer depends on it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
