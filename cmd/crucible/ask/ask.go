// Package askcmder provides the ask command for answering questions from
// the knowledge store, with web search fallback.
package askcmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/cliui"
	"github.com/forgelabs/crucible/pkg/config"
	embeddingutils "github.com/forgelabs/crucible/pkg/embeddings/utils"
	"github.com/forgelabs/crucible/pkg/kbagent"
	knowledgeutils "github.com/forgelabs/crucible/pkg/knowledge/utils"
	providerutils "github.com/forgelabs/crucible/pkg/llm/provider/utils"
	"github.com/forgelabs/crucible/pkg/logger"
)

type askCommander struct {
	question string
	kb       []string
	plain    bool

	topK              uint
	knowledgeProvider string
	dbPath            string
	chunkSize         uint
	chunkOverlap      uint
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint
	llmProvider       string
	llmTarget         string
	llmModel          string
	llmMaxTokens      uint

	debug  bool
	logger *zap.Logger
}

const askLongDesc string = `Answer a question from the knowledge store.

The question is answered knowledge-base-first: if the store holds any
relevant chunks they are injected into the completion request, in the
format the active provider expects. When the store is empty, the
provider's web search is used instead.

Sources passed via --kb are ingested before asking.

Example:
  crucible ask "what causes hot cracking in AZ91?" --kb alloys.md
  crucible ask "current magnesium prices"
  crucible ask "optimal cooling rate" --kb notes.md --llm-provider anthropic`

const askShortDesc string = "Answer a question from the knowledge store"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagTopK,
				config.FlagKnowledgeProv,
				config.FlagDBPath,
				config.FlagChunkSize,
				config.FlagChunkOverlap,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingMdl,
				config.FlagEmbeddingDims,
				config.FlagLLMProv,
				config.FlagLLMTgt,
				config.FlagLLMMdl,
				config.FlagLLMMaxTokens,
			})

			cmder.topK = v.GetUint("agent.top_k")
			cmder.knowledgeProvider = v.GetString("knowledge.provider")
			cmder.dbPath = v.GetString("knowledge.db_path")
			cmder.chunkSize = v.GetUint("knowledge.chunk_size")
			cmder.chunkOverlap = v.GetUint("knowledge.chunk_overlap")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDims = v.GetUint("embedding.dimensions")
			cmder.llmProvider = v.GetString("llm.provider")
			cmder.llmTarget = v.GetString("llm.target")
			cmder.llmModel = v.GetString("llm.model")
			cmder.llmMaxTokens = v.GetUint("llm.max_tokens")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.question = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringArrayVar(&cmder.kb, "kb", nil, "File or text to ingest before asking (repeatable)")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print the raw answer without markdown rendering")
	config.AddUintFlag(cmd, fs, config.FlagTopK, &cmder.topK)
	config.AddStringFlag(cmd, fs, config.FlagKnowledgeProv, &cmder.knowledgeProvider)
	config.AddStringFlag(cmd, fs, config.FlagDBPath, &cmder.dbPath)
	config.AddUintFlag(cmd, fs, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, fs, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingMdl, &cmder.embeddingModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, fs, config.FlagLLMProv, &cmder.llmProvider)
	config.AddStringFlag(cmd, fs, config.FlagLLMTgt, &cmder.llmTarget)
	config.AddStringFlag(cmd, fs, config.FlagLLMMdl, &cmder.llmModel)
	config.AddUintFlag(cmd, fs, config.FlagLLMMaxTokens, &cmder.llmMaxTokens)

	return cmd
}

func (c *askCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := context.Background()

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: c.embeddingProvider,
		TargetURL:    c.embeddingTarget,
		Model:        c.embeddingModel,
		APIKey:       os.Getenv("OPENAI_API_KEY"),
	})
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer embedder.Close()

	store, err := knowledgeutils.NewStore(&knowledgeutils.NewStoreOpts{
		ProviderType: c.knowledgeProvider,
		DBPath:       c.dbPath,
		Dimensions:   c.embeddingDims,
		Chunking:     chunk.Config{Size: int(c.chunkSize), Overlap: int(c.chunkOverlap)},
		Embedder:     embedder,
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating knowledge store: %w", err)
	}
	defer store.Close()

	prov, err := providerutils.NewProvider(&providerutils.NewProviderOpts{
		ProviderType: c.llmProvider,
		APIKey:       providerAPIKey(c.llmProvider),
		TargetURL:    c.llmTarget,
		Model:        c.llmModel,
		MaxTokens:    int(c.llmMaxTokens),
	})
	if err != nil {
		return fmt.Errorf("creating completion provider: %w", err)
	}

	if len(c.kb) > 0 {
		if err := store.Index(ctx, c.kb); err != nil {
			return fmt.Errorf("ingesting knowledge: %w", err)
		}
	}

	agent := kbagent.New(kbagent.Config{TopK: int(c.topK)}, store, prov, c.logger)

	answer, err := agent.Ask(ctx, c.question)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	if c.plain {
		fmt.Println(answer)
		return nil
	}

	rendered, err := cliui.RenderMarkdown(answer)
	if err != nil {
		// Fall back to the raw answer when the terminal renderer fails.
		fmt.Println(answer)
		return nil
	}

	fmt.Print(rendered)
	return nil
}

// providerAPIKey picks the conventional environment variable for the provider.
func providerAPIKey(providerType string) string {
	switch providerType {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
