// Package knowledge provides the vector store contract backing retrieval.
// The vector_search tool queries it by semantic similarity.
package knowledge

import (
	"context"
	"time"
)

// Vector represents an embedding with associated text and metadata.
type Vector struct {
	ID        string            `json:"id"`
	Embedding []float32         `json:"embedding"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult represents a similarity search result.
type SearchResult struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Score    float32           `json:"score"` // Cosine similarity [0,1]
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Store defines the interface for vector knowledge storage.
type Store interface {
	// Upsert stores or updates a vector.
	Upsert(ctx context.Context, vector *Vector) error

	// Search finds similar vectors by embedding using cosine similarity.
	// Returns results sorted by similarity score (highest first).
	Search(ctx context.Context, embedding []float32, topK int) ([]SearchResult, error)

	// Count returns the total number of vectors in the store.
	Count(ctx context.Context) (int64, error)
}

// Embedder maps text to the embedding space the store was built with.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedFunc adapts a plain function to the Embedder interface.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Embed implements Embedder.
func (f EmbedFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
