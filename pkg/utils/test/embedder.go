package testutils

import (
	"context"
	"fmt"

	"github.com/forgelabs/crucible/pkg/knowledge"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for any text without an explicit entry.
	Default []float32

	// FailOn causes Embed to return an error when any input text matches
	FailOn string

	// Calls counts Embed invocations, letting tests assert that no
	// provider call happens on an empty store.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	m.Calls++

	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		if m.FailOn != "" && text == m.FailOn {
			return nil, fmt.Errorf("%w: mock embedding failure for: %s", knowledge.ErrEmbedding, text)
		}

		if emb, ok := m.Embeddings[text]; ok {
			vectors = append(vectors, emb)
			continue
		}

		vectors = append(vectors, m.Default)
	}

	return vectors, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
