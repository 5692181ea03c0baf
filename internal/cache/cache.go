// Package cache provides a categorized, TTL-based, content-addressed cache
// for embeddings, query results, and generated responses.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Fixed categories swept by ClearExpired and reported by Stats.
const (
	CategoryEmbeddings = "embeddings"
	CategoryQueries    = "queries"
	CategoryResponses  = "responses"
)

var fixedCategories = []string{CategoryEmbeddings, CategoryQueries, CategoryResponses}

// DefaultTTL is used when a non-positive TTL is given.
const DefaultTTL = time.Hour

// entry is the on-disk representation of a cached value. Timestamp is the
// write time and the single source of truth for expiry.
type entry struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
}

// Manager memoizes values under (category, key) coordinates with time-based
// expiry, one JSON file per key. Entries for different keys are independent;
// writes to the same key are atomic (write-to-temp-then-rename), so a
// concurrent reader never observes a partially written entry.
type Manager struct {
	dir string
	ttl time.Duration
}

// NewManager creates a cache rooted at dir with the given TTL, creating the
// root and the fixed category directories.
func NewManager(dir string, ttl time.Duration) (*Manager, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	for _, sub := range fixedCategories {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	return &Manager{dir: dir, ttl: ttl}, nil
}

// TTL returns the configured time-to-live.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) path(key, category string) string {
	return filepath.Join(m.dir, category, key+".json")
}

// Set persists value under (category, key). The category directory is
// created on first use. Write failures propagate to the caller.
func (m *Manager) Set(key string, value interface{}, category string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	data, err := json.Marshal(entry{Value: raw, Timestamp: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	dir := filepath.Join(m.dir, category)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create category directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path(key, category)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// Get reads the value under (category, key) into out and reports whether the
// entry was present and fresh. Missing, malformed, or expired entries are a
// miss, never an error.
func (m *Manager) Get(key, category string, out interface{}) bool {
	e, ok := m.readEntry(m.path(key, category))
	if !ok {
		return false
	}
	if err := json.Unmarshal(e.Value, out); err != nil {
		return false
	}
	return true
}

// readEntry loads and validates an entry, applying the TTL check against the
// timestamp recorded in the payload.
func (m *Manager) readEntry(path string) (entry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entry{}, false
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return entry{}, false
	}
	if time.Since(e.Timestamp) > m.ttl {
		return entry{}, false
	}
	return e, true
}

// SetEmbedding caches the embedding for text, keyed by the text hash.
func (m *Manager) SetEmbedding(text string, embedding []float32) error {
	return m.Set(GenerateKey(text), embedding, CategoryEmbeddings)
}

// GetEmbedding returns the cached embedding for text, if fresh.
func (m *Manager) GetEmbedding(text string) ([]float32, bool) {
	var emb []float32
	if !m.Get(GenerateKey(text), CategoryEmbeddings, &emb) {
		return nil, false
	}
	return emb, true
}

// SetQueryResult caches a full query result keyed by the raw query text.
func (m *Manager) SetQueryResult(query string, result interface{}) error {
	return m.Set(GenerateKey(query), result, CategoryQueries)
}

// GetQueryResult reads a cached query result into out.
func (m *Manager) GetQueryResult(query string, out interface{}) bool {
	return m.Get(GenerateKey(query), CategoryQueries, out)
}

// SetResponse caches a generated answer keyed by the (query, context) pair.
func (m *Manager) SetResponse(query, context, response string) error {
	key := GenerateKey(map[string]interface{}{"query": query, "context": context})
	return m.Set(key, response, CategoryResponses)
}

// GetResponse returns the cached answer for (query, context), if fresh.
func (m *Manager) GetResponse(query, context string) (string, bool) {
	key := GenerateKey(map[string]interface{}{"query": query, "context": context})
	var resp string
	if !m.Get(key, CategoryResponses, &resp) {
		return "", false
	}
	return resp, true
}

// ClearCategory deletes every entry in category and returns the count removed.
func (m *Manager) ClearCategory(category string) (int, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, category, "*.json"))
	if err != nil {
		return 0, err
	}
	count := 0
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return count, fmt.Errorf("remove cache entry: %w", err)
		}
		count++
	}
	return count, nil
}

// ClearExpired scans the fixed categories, deletes entries past their TTL,
// and returns the total removed. Expiry is evaluated lazily on read; this is
// the only sweep primitive.
func (m *Manager) ClearExpired() (int, error) {
	count := 0
	for _, category := range fixedCategories {
		files, err := filepath.Glob(filepath.Join(m.dir, category, "*.json"))
		if err != nil {
			return count, err
		}
		for _, f := range files {
			if _, ok := m.readEntry(f); ok {
				continue
			}
			if err := os.Remove(f); err != nil {
				return count, fmt.Errorf("remove expired entry: %w", err)
			}
			count++
		}
	}
	return count, nil
}

// CategoryStats holds entry counts for one category.
type CategoryStats struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
}

// Stats re-runs the expiry predicate over every entry in the fixed
// categories. O(entries), not O(1).
func (m *Manager) Stats() map[string]CategoryStats {
	stats := make(map[string]CategoryStats, len(fixedCategories))
	for _, category := range fixedCategories {
		files, err := filepath.Glob(filepath.Join(m.dir, category, "*.json"))
		if err != nil {
			stats[category] = CategoryStats{}
			continue
		}
		s := CategoryStats{Total: len(files)}
		for _, f := range files {
			if _, ok := m.readEntry(f); !ok {
				s.Expired++
			}
		}
		stats[category] = s
	}
	return stats
}
