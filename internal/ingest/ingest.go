// Package ingest runs the ingestion half of the pipeline: chunk a document,
// embed each chunk (reusing cached embeddings where possible), insert the
// vectors into the index, and persist the document and its chunks.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/cache"
	"github.com/documind/documind/internal/chunker"
	"github.com/documind/documind/internal/embedding"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/fileid"
	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/storage"
	"github.com/documind/documind/internal/vectorindex"
)

// OpError reports a failure of one pipeline operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "ingest: " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

const (
	metaKeySourcePath  = "source_path"
	metaKeySourceMtime = "source_mtime"
	metaKeySourceSize  = "source_size"
)

// Ingestor turns raw documents into indexed, searchable chunks.
type Ingestor struct {
	storage   storage.Storage
	embedder  embedding.Embedder
	index     *vectorindex.Index
	cache     *cache.Manager
	chunker   *chunker.Chunker
	strategy  chunker.Strategy
	extractor *extract.Extractor
	logger    *zap.Logger
}

// NewIngestor creates an ingestor with the given collaborators.
// extractor may be nil; then IngestFile treats every file as plain text.
func NewIngestor(
	st storage.Storage,
	embedder embedding.Embedder,
	index *vectorindex.Index,
	cacheMgr *cache.Manager,
	ch *chunker.Chunker,
	strategy chunker.Strategy,
	extractor *extract.Extractor,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		storage:   st,
		embedder:  embedder,
		index:     index,
		cache:     cacheMgr,
		chunker:   ch,
		strategy:  strategy,
		extractor: extractor,
		logger:    logger,
	}
}

// Ingest chunks, embeds, and indexes a document. A missing input ID gets a
// fresh random one. Returns the document ID and the number of chunks indexed.
// A failed ingestion leaves no document row or vectors behind, so the same
// ID can be retried.
func (ing *Ingestor) Ingest(ctx context.Context, input *models.DocumentInput) (*models.IngestResult, error) {
	if input.ID == "" {
		input.ID = fileid.New()
	}
	doc := &models.Document{
		ID:       input.ID,
		Title:    input.Title,
		Content:  input.Content,
		Metadata: input.Metadata,
	}
	if err := ing.storage.CreateDocument(ctx, doc); err != nil {
		return nil, &OpError{Op: "store document", Err: err}
	}

	chunks := ing.chunker.ChunkDocument(doc.Content, ing.strategy, doc.Metadata)
	for i := range chunks {
		chunks[i].DocumentID = doc.ID
	}
	if len(chunks) == 0 {
		ing.logger.Debug("document produced no chunks", zap.String("doc_id", doc.ID))
		return &models.IngestResult{DocumentID: doc.ID, ChunksProcessed: 0}, nil
	}

	embeddings, err := ing.embedChunks(ctx, chunks)
	if err != nil {
		ing.rollback(ctx, doc.ID, nil)
		return nil, err
	}
	var inserted []string
	for i := range chunks {
		id := fmt.Sprintf("%s_%d", doc.ID, chunks[i].ChunkID)
		if err := ing.index.Insert(id, chunks[i].Text, embeddings[i], chunks[i].Metadata); err != nil {
			ing.rollback(ctx, doc.ID, inserted)
			return nil, &OpError{Op: "index vector", Err: err}
		}
		inserted = append(inserted, id)
	}
	if err := ing.storage.CreateChunks(ctx, chunks); err != nil {
		ing.rollback(ctx, doc.ID, inserted)
		return nil, &OpError{Op: "store chunks", Err: err}
	}

	ing.logger.Info("document ingested",
		zap.String("doc_id", doc.ID),
		zap.Int("chunks", len(chunks)))
	return &models.IngestResult{DocumentID: doc.ID, ChunksProcessed: len(chunks)}, nil
}

// rollback undoes the partial effects of a failed ingestion, removing the
// vectors inserted so far and the document row, so the same document ID can
// be ingested again once the cause is fixed.
func (ing *Ingestor) rollback(ctx context.Context, docID string, vectorIDs []string) {
	for _, id := range vectorIDs {
		if err := ing.index.Delete(id); err != nil {
			ing.logger.Warn("rollback vector delete failed", zap.String("id", id), zap.Error(err))
		}
	}
	if err := ing.storage.DeleteDocument(ctx, docID); err != nil {
		ing.logger.Warn("rollback document delete failed", zap.String("doc_id", docID), zap.Error(err))
	}
}

// embedChunks returns one embedding per chunk, consulting the embedding
// cache first and embedding only the misses in a single batch call.
func (ing *Ingestor) embedChunks(ctx context.Context, chunks []models.Chunk) ([][]float32, error) {
	embeddings := make([][]float32, len(chunks))
	var missTexts []string
	var missIdx []int
	for i := range chunks {
		if emb, ok := ing.cache.GetEmbedding(chunks[i].Text); ok {
			embeddings[i] = emb
			continue
		}
		missTexts = append(missTexts, chunks[i].Text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return embeddings, nil
	}

	fresh, err := ing.embedder.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, &OpError{Op: "embed chunks", Err: err}
	}
	if len(fresh) != len(missTexts) {
		return nil, &OpError{Op: "embed chunks", Err: fmt.Errorf("got %d embeddings for %d texts", len(fresh), len(missTexts))}
	}
	for j, i := range missIdx {
		embeddings[i] = fresh[j]
		if err := ing.cache.SetEmbedding(chunks[i].Text, fresh[j]); err != nil {
			ing.logger.Warn("embedding cache write failed", zap.Error(err))
		}
	}
	ing.logger.Debug("embedded chunks",
		zap.Int("cached", len(chunks)-len(missTexts)),
		zap.Int("fresh", len(missTexts)))
	return embeddings, nil
}

// IngestFile extracts text from a file and ingests it. The document ID is
// derived from the absolute path, so re-ingesting an updated file replaces
// the earlier version. Unchanged files (same mtime and size) are skipped.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*models.IngestResult, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, &OpError{Op: "resolve path", Err: err}
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, &OpError{Op: "stat file", Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &OpError{Op: "stat file", Err: fmt.Errorf("not a regular file: %s", absPath)}
	}

	docID := fileid.ForPath(absPath)
	if ing.unchanged(ctx, docID, absPath, info) {
		ing.logger.Debug("skipping unchanged file", zap.String("path", absPath))
		return &models.IngestResult{DocumentID: docID, ChunksProcessed: 0}, nil
	}

	var text string
	if ing.extractor != nil {
		text, err = ing.extractor.Extract(absPath)
	} else {
		var data []byte
		data, err = os.ReadFile(absPath)
		text = string(data)
	}
	if err != nil {
		return nil, &OpError{Op: "extract content", Err: err}
	}

	_ = ing.DeleteDocument(ctx, docID)

	input := &models.DocumentInput{
		ID:      docID,
		Title:   filepath.Base(absPath),
		Content: text,
		Metadata: map[string]interface{}{
			metaKeySourcePath: absPath,
			// Stored as strings: UnixNano exceeds JSON's 53-bit float precision.
			metaKeySourceMtime: strconv.FormatInt(info.ModTime().UnixNano(), 10),
			metaKeySourceSize:  strconv.FormatInt(info.Size(), 10),
		},
	}
	return ing.Ingest(ctx, input)
}

// IngestDirectory walks dir recursively and ingests every regular file with
// a supported extension. Returns the number of files ingested and the first
// error encountered.
func (ing *Ingestor) IngestDirectory(ctx context.Context, dir string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, &OpError{Op: "resolve path", Err: err}
	}
	var n int
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !extract.Supported(filepath.Ext(path)) {
			return nil
		}
		if _, err := ing.IngestFile(ctx, path); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("ingest directory %s: %w", absDir, err)
	}
	return n, nil
}

// DeleteDocument removes a document, its stored chunks, and its vectors.
func (ing *Ingestor) DeleteDocument(ctx context.Context, docID string) error {
	chunks, err := ing.storage.GetChunksByDocumentID(ctx, docID)
	if err != nil {
		return &OpError{Op: "load chunks", Err: err}
	}
	for i := range chunks {
		id := fmt.Sprintf("%s_%d", docID, chunks[i].ChunkID)
		if err := ing.index.Delete(id); err != nil {
			ing.logger.Debug("vector already absent", zap.String("id", id))
		}
	}
	if err := ing.storage.DeleteChunksByDocumentID(ctx, docID); err != nil {
		return &OpError{Op: "delete chunks", Err: err}
	}
	if err := ing.storage.DeleteDocument(ctx, docID); err != nil {
		return &OpError{Op: "delete document", Err: err}
	}
	return nil
}

// unchanged reports whether the stored document for docID matches the file's
// current mtime and size.
func (ing *Ingestor) unchanged(ctx context.Context, docID, absPath string, info os.FileInfo) bool {
	doc, err := ing.storage.GetDocument(ctx, docID)
	if err != nil || doc.Metadata == nil {
		return false
	}
	if doc.Metadata[metaKeySourcePath] != absPath {
		return false
	}
	return metadataInt64(doc.Metadata, metaKeySourceMtime) == info.ModTime().UnixNano() &&
		metadataInt64(doc.Metadata, metaKeySourceSize) == info.Size()
}

func metadataInt64(m map[string]interface{}, key string) int64 {
	switch n := m[key].(type) {
	case string:
		x, _ := strconv.ParseInt(n, 10, 64)
		return x
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
