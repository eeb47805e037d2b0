package config

import (
	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/kbagent"
)

const (
	defaultKnowledgeProvider = "memory"
	defaultDBPath            = ":memory:"

	defaultEmbeddingProvider   = "openai"
	defaultEmbeddingModel      = "text-embedding-3-small"
	defaultEmbeddingDimensions = 1536

	defaultLLMProvider  = "openai"
	defaultLLMModel     = "gpt-4o-mini"
	defaultLLMMaxTokens = 1024
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Knowledge: KnowledgeConfig{
			Provider:     defaultKnowledgeProvider,
			DBPath:       defaultDBPath,
			ChunkSize:    chunk.DefaultSize,
			ChunkOverlap: chunk.DefaultOverlap,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:  defaultLLMProvider,
			Model:     defaultLLMModel,
			MaxTokens: defaultLLMMaxTokens,
		},
		Agent: AgentConfig{
			TopK: kbagent.DefaultTopK,
		},
	}
}
