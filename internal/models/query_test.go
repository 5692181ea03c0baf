package models

import (
	"testing"
)

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *QueryRequest
		wantErr bool
	}{
		{"empty query", &QueryRequest{Query: ""}, true},
		{"valid query", &QueryRequest{Query: "hello"}, false},
		{"sets default top_k", &QueryRequest{Query: "x", TopK: 0}, false},
		{"caps top_k at 50", &QueryRequest{Query: "x", TopK: 200}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.query.TopK == 0 {
					t.Error("expected default top_k to be set")
				}
				if tt.query.TopK > 50 {
					t.Errorf("expected top_k capped at 50, got %d", tt.query.TopK)
				}
			}
		})
	}
}

func TestQueryRequest_RerankEnabled(t *testing.T) {
	q := &QueryRequest{Query: "x"}
	if !q.RerankEnabled() {
		t.Error("rerank should default to true")
	}
	off := false
	q.Rerank = &off
	if q.RerankEnabled() {
		t.Error("rerank should be disabled when explicitly false")
	}
}
