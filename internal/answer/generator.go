// Package answer generates natural-language answers from retrieved context
// through an external language model.
package answer

import "context"

// Generator produces an answer for a query given assembled document context.
// DescribeImage analyzes an image supplied as a data URL.
type Generator interface {
	GenerateAnswer(ctx context.Context, query, docContext string) (string, error)
	DescribeImage(ctx context.Context, prompt, imageDataURL string) (string, error)
	Close() error
}
