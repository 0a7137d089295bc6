// Package embeddings defines the provider-neutral embedding client interface.
package embeddings

import "context"

// Client defines the interface for generating text embeddings.
type Client interface {
	// GetEmbedding generates an embedding vector for the given text.
	// The returned slice has the provider's configured dimensionality.
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}
