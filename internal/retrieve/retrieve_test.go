package retrieve

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/embedding"
	"github.com/documind/documind/internal/vectorindex"
)

func TestRerankBoostsLexicalOverlap(t *testing.T) {
	results := []vectorindex.SearchResult{
		{ID: "a", Content: "nothing relevant here", Score: 0.90},
		{ID: "b", Content: "the quick brown fox", Score: 0.89},
	}
	reranked := Rerank("quick brown fox", results)
	// b gains 3 * 0.01 and overtakes a.
	if reranked[0].ID != "b" {
		t.Errorf("expected b first after rerank, got %q", reranked[0].ID)
	}
	if got, want := reranked[0].Score, 0.89+0.03; got != want {
		t.Errorf("b score = %v, want %v", got, want)
	}
	if got := reranked[1].Score; got != 0.90 {
		t.Errorf("a score = %v, want unchanged 0.90", got)
	}
}

func TestRerankCaseInsensitiveSetOverlap(t *testing.T) {
	results := []vectorindex.SearchResult{
		{ID: "a", Content: "Fox fox FOX jumps", Score: 0.5},
	}
	reranked := Rerank("fox fox", results)
	// "fox" counts once: tokens form a set on both sides.
	if got, want := reranked[0].Score, 0.5+0.01; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestRerankIdempotent(t *testing.T) {
	results := []vectorindex.SearchResult{
		{ID: "a", Content: "alpha beta", Score: 0.9},
		{ID: "b", Content: "alpha beta", Score: 0.8},
		{ID: "c", Content: "gamma", Score: 0.7},
	}
	first := Rerank("alpha", results)
	order1 := []string{first[0].ID, first[1].ID, first[2].ID}

	second := Rerank("alpha", first)
	for i := range second {
		if second[i].ID != order1[i] {
			t.Fatalf("rerank not order-stable at %d: %q vs %q", i, second[i].ID, order1[i])
		}
	}
}

func TestRerankEmptyQuery(t *testing.T) {
	results := []vectorindex.SearchResult{{ID: "a", Score: 0.5}}
	reranked := Rerank("   ", results)
	if reranked[0].Score != 0.5 {
		t.Errorf("empty query should not change scores, got %v", reranked[0].Score)
	}
}

func TestContextForGeneration(t *testing.T) {
	results := []vectorindex.SearchResult{
		{Content: "aaaa"},
		{Content: "bbbb"},
		{Content: "cccc"},
	}

	tests := []struct {
		name         string
		maxLength    int
		want         string
		wantIncluded int
	}{
		{"all fit", 100, "aaaa\n\nbbbb\n\ncccc", 3},
		{"stops at boundary chunk", 11, "aaaa\n\nbbbb", 2},
		{"exact fit", 10, "aaaa\n\nbbbb", 2},
		{"only first", 5, "aaaa", 1},
		{"nothing fits", 3, "", 0},
		{"zero budget", 0, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, included := ContextForGeneration(results, tt.maxLength)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if included != tt.wantIncluded {
				t.Errorf("included = %d, want %d", included, tt.wantIncluded)
			}
		})
	}
}

func TestContextStopsDoesNotSkipAhead(t *testing.T) {
	// The second chunk crosses the budget; the third would fit, but
	// assembly stops at the boundary rather than best-fit packing.
	results := []vectorindex.SearchResult{
		{Content: "aaaa"},
		{Content: "bbbbbbbbbbbbbbbbbbbb"},
		{Content: "cc"},
	}
	got, included := ContextForGeneration(results, 12)
	if got != "aaaa" {
		t.Errorf("got %q, want %q", got, "aaaa")
	}
	if included != 1 {
		t.Errorf("included = %d, want 1", included)
	}
}

func TestRetrieveEndToEnd(t *testing.T) {
	index, err := vectorindex.New(16)
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(16)
	ctx := context.Background()

	docs := map[string]string{
		"go":   "Go is a programming language with goroutines.",
		"cook": "Slow roasting brings out deep flavors in vegetables.",
		"sail": "Trimming the mainsail changes how the boat heels.",
	}
	for id, text := range docs {
		vec, err := embedder.Embed(ctx, text)
		if err != nil {
			t.Fatal(err)
		}
		if err := index.Insert(id, text, vec, nil); err != nil {
			t.Fatal(err)
		}
	}

	p := NewProcessor(embedder, index, 0.0, zap.NewNop())

	// The exact indexed text embeds identically, so it must rank first.
	results, err := p.Retrieve(ctx, "Go is a programming language with goroutines.", 2, true)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "go" {
		t.Errorf("top result = %q, want %q", results[0].ID, "go")
	}
}

func TestRetrieveThresholdFilters(t *testing.T) {
	index, err := vectorindex.New(3)
	if err != nil {
		t.Fatal(err)
	}
	if err := index.Insert("x", "x", []float32{1, 0, 0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := index.Insert("y", "y", []float32{0, 1, 0}, nil); err != nil {
		t.Fatal(err)
	}

	p := NewProcessor(&fixedEmbedder{vec: []float32{1, 0, 0}}, index, 0.5, zap.NewNop())
	results, err := p.Retrieve(context.Background(), "anything", 10, false)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) != 1 || results[0].ID != "x" {
		t.Errorf("threshold should keep only x, got %v", results)
	}
}

type fixedEmbedder struct {
	vec []float32
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vec, nil
}

func (e *fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = e.vec
	}
	return out, nil
}

func (e *fixedEmbedder) Dimensions() int { return len(e.vec) }
func (e *fixedEmbedder) Close() error    { return nil }
