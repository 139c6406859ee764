// Package embeddings provides embedding generation functionality.
package embeddings

import (
	"context"
)

// EmbeddingDimension is the default embedding dimension
const EmbeddingDimension = 768

// Client provides embedding generation functionality
type Client interface {
	// EmbedQuery generates an embedding vector for the given query text
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// EmbedDocuments generates embedding vectors for the given documents
	EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error)
}

// NoopClient is a no-op implementation used when no embedding provider
// is configured.
type NoopClient struct{}

// NewNoopClient creates a new NoopClient
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// EmbedQuery returns nil, nil (no embedding available)
func (c *NoopClient) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return nil, nil
}

// EmbedDocuments returns one nil vector per document so callers can zip
// documents and vectors without a length check.
func (c *NoopClient) EmbedDocuments(ctx context.Context, documents []string) ([][]float32, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	return make([][]float32, len(documents)), nil
}
