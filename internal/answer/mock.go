package answer

import (
	"context"
	"fmt"
)

// MockGenerator is a deterministic generator for tests. It echoes the query
// and reports how much context it was given.
type MockGenerator struct{}

// NewMockGenerator returns a generator usable without any API access.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// GenerateAnswer returns a canned answer derived from its inputs.
func (g *MockGenerator) GenerateAnswer(ctx context.Context, query, docContext string) (string, error) {
	return fmt.Sprintf("answer to %q from %d context chars", query, len(docContext)), nil
}

// DescribeImage returns a canned description.
func (g *MockGenerator) DescribeImage(ctx context.Context, prompt, imageDataURL string) (string, error) {
	return fmt.Sprintf("description for image (%d bytes of data URL)", len(imageDataURL)), nil
}

// Close is a no-op.
func (g *MockGenerator) Close() error {
	return nil
}
