// Package app wires the ingestion and retrieval pipelines, the cache, and
// the answer generator into one facade used by the HTTP server and the CLI.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/answer"
	"github.com/documind/documind/internal/cache"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/ingest"
	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/retrieve"
	"github.com/documind/documind/internal/storage"
	"github.com/documind/documind/internal/vectorindex"
	"github.com/documind/documind/pkg/utils"
)

// snippetLength bounds the per-source snippet returned with query results.
const snippetLength = 200

// App is the top-level facade over the document pipeline. Failures are
// scoped to the call that hit them; nothing here terminates the process.
type App struct {
	ingestor  *ingest.Ingestor
	processor *retrieve.Processor
	generator answer.Generator
	cache     *cache.Manager
	index     *vectorindex.Index
	storage   storage.Storage

	maxContextLength int
	logger           *zap.Logger
}

// Options carries the collaborators for New. Generator may be nil; queries
// then return retrieved context without a generated answer.
type Options struct {
	Ingestor         *ingest.Ingestor
	Processor        *retrieve.Processor
	Generator        answer.Generator
	Cache            *cache.Manager
	Index            *vectorindex.Index
	Storage          storage.Storage
	MaxContextLength int
	Logger           *zap.Logger
}

// New assembles the facade.
func New(opts Options) *App {
	if opts.MaxContextLength <= 0 {
		opts.MaxContextLength = 4000
	}
	return &App{
		ingestor:         opts.Ingestor,
		processor:        opts.Processor,
		generator:        opts.Generator,
		cache:            opts.Cache,
		index:            opts.Index,
		storage:          opts.Storage,
		maxContextLength: opts.MaxContextLength,
		logger:           opts.Logger,
	}
}

// Ingest chunks, embeds, and indexes a document.
func (a *App) Ingest(ctx context.Context, input *models.DocumentInput) (*models.IngestResult, error) {
	return a.ingestor.Ingest(ctx, input)
}

// IngestFile extracts text from the file at path and ingests it under a
// path-derived document ID.
func (a *App) IngestFile(ctx context.Context, path string) (*models.IngestResult, error) {
	return a.ingestor.IngestFile(ctx, path)
}

// IngestDirectory ingests every supported file under dir.
func (a *App) IngestDirectory(ctx context.Context, dir string) (int, error) {
	return a.ingestor.IngestDirectory(ctx, dir)
}

// DeleteDocument removes a document and its chunks from storage and the
// vector index.
func (a *App) DeleteDocument(ctx context.Context, docID string) error {
	return a.ingestor.DeleteDocument(ctx, docID)
}

// GetDocument returns a stored document by ID.
func (a *App) GetDocument(ctx context.Context, docID string) (*models.Document, error) {
	return a.storage.GetDocument(ctx, docID)
}

// ListDocuments returns stored documents, newest first.
func (a *App) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	return a.storage.ListDocuments(ctx, offset, limit)
}

// Query runs the full retrieval path for req and generates an answer when a
// generator is configured. A repeated identical query is served from the
// query cache without embedding or search work.
func (a *App) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	var cached models.QueryResponse
	if a.cache.GetQueryResult(req.Query, &cached) {
		cached.Cached = true
		cached.QueryTime = time.Since(start).Milliseconds()
		a.logger.Debug("query served from cache", zap.String("query", req.Query))
		return &cached, nil
	}

	results, err := a.processor.Retrieve(ctx, req.Query, req.TopK, req.RerankEnabled())
	if err != nil {
		return nil, err
	}
	docContext, included := retrieve.ContextForGeneration(results, a.maxContextLength)

	resp := &models.QueryResponse{
		Query:      req.Query,
		Context:    docContext,
		Sources:    make([]models.Source, 0, len(results)),
		NumSources: included,
	}
	for _, r := range results {
		resp.Sources = append(resp.Sources, models.Source{
			ID:      r.ID,
			Score:   r.Score,
			Snippet: utils.Truncate(r.Content, snippetLength),
		})
	}

	if a.generator != nil && docContext != "" {
		resp.Answer, err = a.generateAnswer(ctx, req.Query, docContext)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
	}

	if err := a.cache.SetQueryResult(req.Query, resp); err != nil {
		a.logger.Warn("query cache write failed", zap.Error(err))
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	return resp, nil
}

// generateAnswer produces an answer for the query over docContext, memoized
// in the responses cache category under the {query, context} pair.
func (a *App) generateAnswer(ctx context.Context, query, docContext string) (string, error) {
	if text, ok := a.cache.GetResponse(query, docContext); ok {
		return text, nil
	}
	text, err := a.generator.GenerateAnswer(ctx, query, docContext)
	if err != nil {
		return "", err
	}
	if err := a.cache.SetResponse(query, docContext, text); err != nil {
		a.logger.Warn("response cache write failed", zap.Error(err))
	}
	return text, nil
}

// DescribeImage runs the vision generator over the image at path and
// returns the description. Requires a configured generator.
func (a *App) DescribeImage(ctx context.Context, path, prompt string) (string, error) {
	if a.generator == nil {
		return "", fmt.Errorf("no answer generator configured")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	dataURL, err := extract.ImageDataURL(content)
	if err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return a.generator.DescribeImage(ctx, prompt, dataURL)
}

// IngestImage describes the image with the vision generator and ingests the
// description as a document so it becomes searchable.
func (a *App) IngestImage(ctx context.Context, path string) (*models.IngestResult, error) {
	description, err := a.DescribeImage(ctx, path, "")
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	info, err := extract.DecodeImageInfo(content)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return a.ingestor.Ingest(ctx, &models.DocumentInput{
		Title:   path,
		Content: description,
		Metadata: map[string]interface{}{
			"source_image": path,
			"image_format": info.Format,
			"image_width":  info.Width,
			"image_height": info.Height,
		},
	})
}

// ClearExpiredCache removes expired cache entries and returns the count.
func (a *App) ClearExpiredCache() int {
	n, err := a.cache.ClearExpired()
	if err != nil {
		a.logger.Warn("clearing expired cache entries", zap.Error(err))
	}
	return n
}

// CacheStats returns per-category cache entry counts.
func (a *App) CacheStats() map[string]cache.CategoryStats {
	return a.cache.Stats()
}

// IndexSize returns the number of vectors in the index.
func (a *App) IndexSize() int {
	return a.index.Size()
}

// Status summarizes the state of the pipeline's stores.
type Status struct {
	Documents  int64                          `json:"documents"`
	Chunks     int64                          `json:"chunks"`
	IndexSize  int                            `json:"index_size"`
	CacheStats map[string]cache.CategoryStats `json:"cache_stats"`
}

// Status reports document, chunk, and index counts plus cache stats.
func (a *App) Status(ctx context.Context) (*Status, error) {
	docs, err := a.storage.CountDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	chunks, err := a.storage.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &Status{
		Documents:  docs,
		Chunks:     chunks,
		IndexSize:  a.index.Size(),
		CacheStats: a.cache.Stats(),
	}, nil
}
