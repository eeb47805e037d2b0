package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --embedding-model
// on both "crucible index" and "crucible search" and "crucible ask").
type Flag struct {
	// Name is the long flag name (e.g. "embedding-model").
	Name string

	// Shorthand is the one-letter short flag (e.g. "m"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "embedding.model").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagKnowledgeProv = "knowledge-provider"
	FlagDBPath        = "db-path"
	FlagChunkSize     = "chunk-size"
	FlagChunkOverlap  = "chunk-overlap"
	FlagEmbeddingProv = "embedding-provider"
	FlagEmbeddingTgt  = "embedding-target"
	FlagEmbeddingMdl  = "embedding-model"
	FlagEmbeddingDims = "embedding-dimensions"
	FlagLLMProv       = "llm-provider"
	FlagLLMTgt        = "llm-target"
	FlagLLMMdl        = "llm-model"
	FlagLLMMaxTokens  = "llm-max-tokens"
	FlagTopK          = "top-k"
)

// DefaultFlagSet returns the canonical flag definitions shared by the
// crucible commands. Commands pick the subset they need by registry key.
func DefaultFlagSet() FlagSet {
	return FlagSet{
		FlagKnowledgeProv: {
			Name:        "knowledge-provider",
			ViperKey:    "knowledge.provider",
			Description: "knowledge store provider (memory, sqlite)",
		},
		FlagDBPath: {
			Name:        "db-path",
			ViperKey:    "knowledge.db_path",
			Description: "sqlite database path for the sqlite knowledge store",
		},
		FlagChunkSize: {
			Name:        "chunk-size",
			ViperKey:    "knowledge.chunk_size",
			Description: "chunk width in characters",
		},
		FlagChunkOverlap: {
			Name:        "chunk-overlap",
			ViperKey:    "knowledge.chunk_overlap",
			Description: "characters shared between consecutive chunks",
		},
		FlagEmbeddingProv: {
			Name:        "embedding-provider",
			ViperKey:    "embedding.provider",
			Description: "embedding provider (openai, ollama)",
		},
		FlagEmbeddingTgt: {
			Name:        "embedding-target",
			ViperKey:    "embedding.target",
			Description: "embedding provider base URL",
		},
		FlagEmbeddingMdl: {
			Name:        "embedding-model",
			ViperKey:    "embedding.model",
			Description: "embedding model name",
		},
		FlagEmbeddingDims: {
			Name:        "embedding-dimensions",
			ViperKey:    "embedding.dimensions",
			Description: "embedding vector dimensions",
		},
		FlagLLMProv: {
			Name:        "llm-provider",
			ViperKey:    "llm.provider",
			Description: "completion provider (openai, anthropic)",
		},
		FlagLLMTgt: {
			Name:        "llm-target",
			ViperKey:    "llm.target",
			Description: "completion provider base URL",
		},
		FlagLLMMdl: {
			Name:        "llm-model",
			ViperKey:    "llm.model",
			Description: "completion model name",
		},
		FlagLLMMaxTokens: {
			Name:        "llm-max-tokens",
			ViperKey:    "llm.max_tokens",
			Description: "maximum tokens per completion",
		},
		FlagTopK: {
			Name:        "top-k",
			Shorthand:   "k",
			ViperKey:    "agent.top_k",
			Description: "number of chunks retrieved per query",
		},
	}
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultUint returns the default uint value for a viper key from NewDefaultConfig.
func defaultUint(viperKey string) uint {
	v := viper.New()
	setViperDefaults(v)
	return v.GetUint(viperKey)
}
