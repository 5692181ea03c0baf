// Package retrieve runs the query half of the pipeline: embed the query,
// search the vector index, optionally rerank by lexical overlap, and
// assemble a bounded context for answer generation.
package retrieve

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/documind/documind/internal/embedding"
	"github.com/documind/documind/internal/vectorindex"
)

// OpError reports a failure of one retrieval operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string { return "retrieve: " + e.Op + ": " + e.Err.Error() }

func (e *OpError) Unwrap() error { return e.Err }

// rerankBoost is the score added per distinct query token found in a chunk.
const rerankBoost = 0.01

// Processor retrieves relevant chunks for a query.
type Processor struct {
	embedder  embedding.Embedder
	index     *vectorindex.Index
	threshold float64
	logger    *zap.Logger
}

// NewProcessor creates a retrieval processor. threshold is the minimum
// cosine similarity for a chunk to be considered at all.
func NewProcessor(
	embedder embedding.Embedder,
	index *vectorindex.Index,
	threshold float64,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		embedder:  embedder,
		index:     index,
		threshold: threshold,
		logger:    logger,
	}
}

// Retrieve returns the topK most relevant chunks for query, reranked by
// lexical overlap when rerank is true. The query embedding is computed
// fresh each call; repeated queries are memoized a level up, in the
// queries cache category.
func (p *Processor) Retrieve(ctx context.Context, query string, topK int, rerank bool) ([]vectorindex.SearchResult, error) {
	queryVec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &OpError{Op: "embed query", Err: err}
	}

	results, err := p.index.Search(queryVec, topK, p.threshold)
	if err != nil {
		return nil, &OpError{Op: "search index", Err: err}
	}
	if rerank {
		results = Rerank(query, results)
	}
	p.logger.Debug("retrieved chunks",
		zap.String("query", query),
		zap.Int("results", len(results)),
		zap.Bool("rerank", rerank))
	return results, nil
}

// Rerank adjusts each result's score by a small boost per distinct query
// token appearing in the chunk, then re-sorts. The sort is stable, so on a
// list whose scores already reflect the boost the order does not change.
func Rerank(query string, results []vectorindex.SearchResult) []vectorindex.SearchResult {
	queryTokens := tokenSet(query)
	if len(queryTokens) == 0 {
		return results
	}
	for i := range results {
		contentTokens := tokenSet(results[i].Content)
		overlap := 0
		for tok := range queryTokens {
			if contentTokens[tok] {
				overlap++
			}
		}
		results[i].Score += rerankBoost * float64(overlap)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// tokenSet returns the distinct lowercase whitespace-separated tokens of s.
func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = true
	}
	return set
}

// ContextForGeneration joins chunk contents with blank lines, in ranked
// order, stopping before the first chunk that would push the total past
// maxLength. Chunks are never truncated. The count of chunks included in
// the returned context is reported alongside it.
func ContextForGeneration(results []vectorindex.SearchResult, maxLength int) (string, int) {
	var b strings.Builder
	included := 0
	for _, r := range results {
		need := len(r.Content)
		if b.Len() > 0 {
			need += 2
		}
		if b.Len()+need > maxLength {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(r.Content)
		included++
	}
	return b.String(), included
}
