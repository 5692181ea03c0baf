package models

import "fmt"

// QueryRequest represents a retrieval query with optional tuning parameters.
type QueryRequest struct {
	Query     string  `json:"query"`
	TopK      int     `json:"top_k,omitempty"`
	Threshold float64 `json:"threshold,omitempty"` // minimum cosine similarity; 0 = no filter
	Rerank    *bool   `json:"rerank,omitempty"`    // lexical rerank; defaults to true when unset
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the query text is empty; otherwise normalizes TopK.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if q.TopK > 50 {
		q.TopK = 50
	}
	return nil
}

// RerankEnabled returns whether lexical reranking is requested; defaults to true.
func (q *QueryRequest) RerankEnabled() bool {
	if q.Rerank != nil {
		return *q.Rerank
	}
	return true
}
