package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent crucible configuration stored as config.toml
// in the .crucible/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version   int             `toml:"version"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Agent     AgentConfig     `toml:"agent"`
}

// KnowledgeConfig holds knowledge store settings.
type KnowledgeConfig struct {
	Provider     string `toml:"provider,omitempty"`
	DBPath       string `toml:"db_path,omitempty"`
	ChunkSize    uint   `toml:"chunk_size,omitempty"`
	ChunkOverlap uint   `toml:"chunk_overlap,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// LLMConfig holds completion provider settings.
type LLMConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Target    string `toml:"target,omitempty"`
	Model     string `toml:"model,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`
}

// AgentConfig holds knowledge agent settings.
type AgentConfig struct {
	TopK uint `toml:"top_k,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// setUint returns a setter that parses v as an unsigned integer into dst.
func setUint(key string, dst func(c *Config) *uint) func(c *Config, v string) error {
	return func(c *Config, v string) error {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", key, err)
		}
		*dst(c) = uint(n)
		return nil
	}
}

// getUint returns a getter that formats the uint at dst, empty string for zero.
func getUint(dst func(c *Config) *uint) func(c *Config) string {
	return func(c *Config) string {
		n := *dst(c)
		if n == 0 {
			return ""
		}
		return strconv.FormatUint(uint64(n), 10)
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"knowledge.provider": {
		get: func(c *Config) string { return c.Knowledge.Provider },
		set: func(c *Config, v string) error { c.Knowledge.Provider = v; return nil },
	},
	"knowledge.db_path": {
		get: func(c *Config) string { return c.Knowledge.DBPath },
		set: func(c *Config, v string) error { c.Knowledge.DBPath = v; return nil },
	},
	"knowledge.chunk_size": {
		get: getUint(func(c *Config) *uint { return &c.Knowledge.ChunkSize }),
		set: setUint("knowledge.chunk_size", func(c *Config) *uint { return &c.Knowledge.ChunkSize }),
	},
	"knowledge.chunk_overlap": {
		get: getUint(func(c *Config) *uint { return &c.Knowledge.ChunkOverlap }),
		set: setUint("knowledge.chunk_overlap", func(c *Config) *uint { return &c.Knowledge.ChunkOverlap }),
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": {
		get: getUint(func(c *Config) *uint { return &c.Embedding.Dimensions }),
		set: setUint("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	},
	"llm.provider": {
		get: func(c *Config) string { return c.LLM.Provider },
		set: func(c *Config, v string) error { c.LLM.Provider = v; return nil },
	},
	"llm.target": {
		get: func(c *Config) string { return c.LLM.Target },
		set: func(c *Config, v string) error { c.LLM.Target = v; return nil },
	},
	"llm.model": {
		get: func(c *Config) string { return c.LLM.Model },
		set: func(c *Config, v string) error { c.LLM.Model = v; return nil },
	},
	"llm.max_tokens": {
		get: getUint(func(c *Config) *uint { return &c.LLM.MaxTokens }),
		set: setUint("llm.max_tokens", func(c *Config) *uint { return &c.LLM.MaxTokens }),
	},
	"agent.top_k": {
		get: getUint(func(c *Config) *uint { return &c.Agent.TopK }),
		set: setUint("agent.top_k", func(c *Config) *uint { return &c.Agent.TopK }),
	},
}
