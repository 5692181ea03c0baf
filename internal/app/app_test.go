package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/answer"
	"github.com/documind/documind/internal/cache"
	"github.com/documind/documind/internal/chunker"
	"github.com/documind/documind/internal/embedding"
	"github.com/documind/documind/internal/extract"
	"github.com/documind/documind/internal/ingest"
	"github.com/documind/documind/internal/models"
	"github.com/documind/documind/internal/retrieve"
	"github.com/documind/documind/internal/storage"
	"github.com/documind/documind/internal/vectorindex"
)

type testHarness struct {
	app      *App
	embedder *countingEmbedder
}

func newTestApp(t *testing.T, generator answer.Generator) *testHarness {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewSQLiteStorage(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cacheMgr, err := cache.NewManager(filepath.Join(dir, "cache"), time.Hour)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	embedder := &countingEmbedder{inner: embedding.NewMockEmbedder(16)}
	index, err := vectorindex.New(16)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	logger := zap.NewNop()

	ing := ingest.NewIngestor(st, embedder, index, cacheMgr,
		chunker.NewChunker(200, 40), chunker.ByWindow,
		extract.NewExtractor(), logger)
	proc := retrieve.NewProcessor(embedder, index, 0.0, logger)

	a := New(Options{
		Ingestor:         ing,
		Processor:        proc,
		Generator:        generator,
		Cache:            cacheMgr,
		Index:            index,
		Storage:          st,
		MaxContextLength: 4000,
		Logger:           logger,
	})
	return &testHarness{app: a, embedder: embedder}
}

func TestQueryReturnsAnswerAndSources(t *testing.T) {
	h := newTestApp(t, answer.NewMockGenerator())
	ctx := context.Background()

	text := "Goroutines are lightweight threads managed by the Go runtime."
	if _, err := h.app.Ingest(ctx, &models.DocumentInput{Content: text}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	resp, err := h.app.Query(ctx, &models.QueryRequest{Query: text})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer == "" {
		t.Error("expected a generated answer")
	}
	if resp.Context == "" {
		t.Error("expected assembled context")
	}
	if resp.NumSources == 0 || len(resp.Sources) == 0 {
		t.Fatal("expected at least one source")
	}
	if resp.Sources[0].Snippet == "" {
		t.Error("expected a snippet on the top source")
	}
	if resp.Cached {
		t.Error("first query should not be marked cached")
	}
}

func TestQueryMemoized(t *testing.T) {
	h := newTestApp(t, answer.NewMockGenerator())
	ctx := context.Background()

	if _, err := h.app.Ingest(ctx, &models.DocumentInput{Content: "Some searchable content."}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	first, err := h.app.Query(ctx, &models.QueryRequest{Query: "Some searchable content."})
	if err != nil {
		t.Fatalf("first Query: %v", err)
	}
	callsAfterFirst := h.embedder.calls

	second, err := h.app.Query(ctx, &models.QueryRequest{Query: "Some searchable content."})
	if err != nil {
		t.Fatalf("second Query: %v", err)
	}
	if !second.Cached {
		t.Error("repeat query should be served from cache")
	}
	if h.embedder.calls != callsAfterFirst {
		t.Errorf("repeat query should not embed: %d calls, had %d", h.embedder.calls, callsAfterFirst)
	}
	if second.Answer != first.Answer || second.Context != first.Context {
		t.Error("cached response should match the original")
	}
}

func TestQueryWithoutGenerator(t *testing.T) {
	h := newTestApp(t, nil)
	ctx := context.Background()

	if _, err := h.app.Ingest(ctx, &models.DocumentInput{Content: "Context only, no generator."}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	resp, err := h.app.Query(ctx, &models.QueryRequest{Query: "Context only, no generator."})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Answer != "" {
		t.Errorf("expected empty answer without generator, got %q", resp.Answer)
	}
	if resp.Context == "" {
		t.Error("expected context even without generator")
	}
}

func TestQueryNumSourcesMatchesContext(t *testing.T) {
	h := newTestApp(t, nil)
	h.app.maxContextLength = 10
	ctx := context.Background()

	text := "A chunk much longer than the context budget allows."
	if _, err := h.app.Ingest(ctx, &models.DocumentInput{Content: text}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	resp, err := h.app.Query(ctx, &models.QueryRequest{Query: text})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("expected the chunk among the sources")
	}
	if resp.NumSources != 0 {
		t.Errorf("NumSources = %d, want 0: the only chunk exceeds the context budget", resp.NumSources)
	}
	if resp.Context != "" {
		t.Errorf("Context = %q, want empty", resp.Context)
	}
}

func TestQueryValidation(t *testing.T) {
	h := newTestApp(t, nil)
	if _, err := h.app.Query(context.Background(), &models.QueryRequest{Query: ""}); err == nil {
		t.Error("empty query should be rejected")
	}
}

func TestStatus(t *testing.T) {
	h := newTestApp(t, nil)
	ctx := context.Background()

	if _, err := h.app.Ingest(ctx, &models.DocumentInput{Content: "A document for status counting."}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	status, err := h.app.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Documents != 1 {
		t.Errorf("Documents = %d, want 1", status.Documents)
	}
	if status.Chunks == 0 {
		t.Error("expected chunk count > 0")
	}
	if status.IndexSize != h.app.IndexSize() {
		t.Errorf("IndexSize mismatch: %d vs %d", status.IndexSize, h.app.IndexSize())
	}
	if _, ok := status.CacheStats[cache.CategoryEmbeddings]; !ok {
		t.Error("expected embeddings category in cache stats")
	}
}

func TestDeleteDocumentThroughFacade(t *testing.T) {
	h := newTestApp(t, nil)
	ctx := context.Background()

	result, err := h.app.Ingest(ctx, &models.DocumentInput{Content: "Ephemeral document."})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if err := h.app.DeleteDocument(ctx, result.DocumentID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if h.app.IndexSize() != 0 {
		t.Errorf("IndexSize = %d after delete, want 0", h.app.IndexSize())
	}
	if _, err := h.app.GetDocument(ctx, result.DocumentID); err == nil {
		t.Error("document should be gone")
	}
}

func TestClearExpiredCache(t *testing.T) {
	h := newTestApp(t, nil)
	if n := h.app.ClearExpiredCache(); n != 0 {
		t.Errorf("fresh cache should have nothing expired, got %d", n)
	}
}

type countingEmbedder struct {
	inner *embedding.MockEmbedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.inner.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	return e.inner.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) Dimensions() int { return e.inner.Dimensions() }
func (e *countingEmbedder) Close() error    { return nil }
