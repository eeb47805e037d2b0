// Package embeddings defines the embedding-provider contract consumed by the
// knowledge stores.
package embeddings

import "context"

// Embedder converts text into vector embeddings.
type Embedder interface {
	// Embed converts a batch of texts into vector embeddings, one vector
	// per input, in input order. Vector dimensionality is fixed by the
	// provider's configured model. Failures wrap knowledge.ErrEmbedding;
	// implementations do not retry.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}
