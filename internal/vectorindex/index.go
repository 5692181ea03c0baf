// Package vectorindex provides an in-memory vector index with exact cosine
// similarity search.
package vectorindex

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// Entry is a stored vector with its payload. Entries are owned exclusively
// by the Index; callers receive copies for reading.
type Entry struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]interface{}
}

// SearchResult pairs an entry with its similarity score. Transient, not
// persisted.
type SearchResult struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	Score    float64
}

// Index holds fixed-dimension vectors and answers top-k similarity queries
// with a linear scan, O(n) per query. Searches run under a read lock;
// inserts and deletes serialize against each other and in-flight scans.
type Index struct {
	dimension int
	entries   []Entry
	byID      map[string]int // id -> position; rebuilt after deletion
	mu        sync.RWMutex
}

// New creates an index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	return &Index{
		dimension: dimension,
		byID:      make(map[string]int),
	}, nil
}

// Dimension returns the fixed embedding dimension.
func (idx *Index) Dimension() int { return idx.dimension }

// Insert stores a vector with its payload. Returns a DimensionError if the
// embedding length does not match the index dimension, and ErrDuplicateID
// if the id is already present. The embedding is copied, never coerced.
func (idx *Index) Insert(id, content string, embedding []float32, metadata map[string]interface{}) error {
	if len(embedding) != idx.dimension {
		return &DimensionError{Got: len(embedding), Want: idx.dimension}
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byID[id]; exists {
		return fmt.Errorf("insert %q: %w", id, ErrDuplicateID)
	}
	vec := make([]float32, idx.dimension)
	copy(vec, embedding)
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	idx.entries = append(idx.entries, Entry{
		ID:        id,
		Content:   content,
		Embedding: vec,
		Metadata:  metadata,
	})
	idx.byID[id] = len(idx.entries) - 1
	return nil
}

// Search computes cosine similarity between query and every stored vector,
// keeps entries scoring at least threshold, and returns up to topK results
// sorted by similarity descending. Ties keep insertion order (stable sort).
// An empty index returns an empty result, never an error.
func (idx *Index) Search(query []float32, topK int, threshold float64) ([]SearchResult, error) {
	if len(query) != idx.dimension {
		return nil, &DimensionError{Got: len(query), Want: idx.dimension}
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if topK <= 0 || len(idx.entries) == 0 {
		return nil, nil
	}
	results := make([]SearchResult, 0, len(idx.entries))
	for _, e := range idx.entries {
		score := CosineSimilarity(query, e.Embedding)
		if score >= threshold {
			results = append(results, SearchResult{
				ID:       e.ID,
				Content:  e.Content,
				Metadata: e.Metadata,
				Score:    score,
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// GetByID returns a copy of the entry with the given id.
func (idx *Index) GetByID(id string) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	pos, ok := idx.byID[id]
	if !ok {
		return Entry{}, false
	}
	return idx.entries[pos], true
}

// Delete removes the entry with the given id. Returns ErrNotFound when
// absent. The position map is rebuilt so id lookups stay consistent.
func (idx *Index) Delete(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	pos, ok := idx.byID[id]
	if !ok {
		return fmt.Errorf("delete %q: %w", id, ErrNotFound)
	}
	idx.entries = append(idx.entries[:pos], idx.entries[pos+1:]...)
	idx.byID = make(map[string]int, len(idx.entries))
	for i, e := range idx.entries {
		idx.byID[e.ID] = i
	}
	return nil
}

// Size returns the number of stored vectors.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Clear removes all entries.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = nil
	idx.byID = make(map[string]int)
}

// CosineSimilarity returns dot(a,b) / (|a|*|b|). When either vector has zero
// magnitude the similarity is undefined; 0 is returned as the deterministic
// fallback. Mismatched lengths also score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
