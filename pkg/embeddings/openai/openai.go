// Package openai implements pkg/embeddings' Embedder on the OpenAI
// Embeddings API.
package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/forgelabs/crucible/pkg/embeddings"
	"github.com/forgelabs/crucible/pkg/knowledge"
)

// DefaultEmbeddingModel is the default model used for embeddings. It produces
// 1536-dimension vectors.
const DefaultEmbeddingModel = "text-embedding-3-small"

// Embedder wraps the OpenAI Embeddings API.
type Embedder struct {
	client *goopenai.Client
	model  string
}

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for proxies or
	// OpenAI-compatible servers. Defaults to the public API.
	BaseURL string

	// Model is the embedding model to use.
	// Defaults to DefaultEmbeddingModel if empty.
	Model string
}

// NewEmbedder creates a new embedder using the OpenAI Embeddings API.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	clientConfig := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client: goopenai.NewClientWithConfig(clientConfig),
		model:  model,
	}, nil
}

// Embed converts a batch of texts into vector embeddings, one per input, in
// input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", knowledge.ErrEmbedding)
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model: goopenai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai request: %v", knowledge.ErrEmbedding, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", knowledge.ErrEmbedding, len(texts), len(resp.Data))
	}

	// The API documents response order as matching input order, with Index
	// as the authoritative position.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: embedding index %d out of range", knowledge.ErrEmbedding, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	return vectors, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

// Ensure Embedder implements embeddings.Embedder
var _ embeddings.Embedder = (*Embedder)(nil)
