// Package indexcmder provides the index command for ingesting documents
// into the knowledge store.
package indexcmder

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
	knowledgeutils "github.com/forgelabs/crucible/pkg/knowledge/utils"
	"github.com/forgelabs/crucible/pkg/logger"
	"github.com/forgelabs/crucible/pkg/utils"
)

type indexCommander struct {
	inputs []string

	knowledgeProvider string
	dbPath            string
	chunkSize         uint
	chunkOverlap      uint
	embeddingProvider string
	embeddingTarget   string
	embeddingModel    string
	embeddingDims     uint

	debug  bool
	logger *zap.Logger
}

const indexLongDesc string = `Ingest documents into the knowledge store.

Each input is resolved as a file path first; anything that is not a
readable file is ingested as inline text. Files are split into
overlapping chunks, embedded, and stored.

With the default in-memory store the index lives only for the duration
of the process; configure knowledge.provider = "sqlite" and a db_path
to persist the index across commands.

Examples:
  crucible index notes.md paper.txt
  crucible index "magnesium alloys lose strength above 200C"
  crucible index notes.md --knowledge-provider sqlite --db-path kb.sqlite`

const indexShortDesc string = "Ingest documents into the knowledge store"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "index <input>...",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagKnowledgeProv,
				config.FlagDBPath,
				config.FlagChunkSize,
				config.FlagChunkOverlap,
				config.FlagEmbeddingProv,
				config.FlagEmbeddingTgt,
				config.FlagEmbeddingMdl,
				config.FlagEmbeddingDims,
			})

			cmder.knowledgeProvider = v.GetString("knowledge.provider")
			cmder.dbPath = v.GetString("knowledge.db_path")
			cmder.chunkSize = v.GetUint("knowledge.chunk_size")
			cmder.chunkOverlap = v.GetUint("knowledge.chunk_overlap")
			cmder.embeddingProvider = v.GetString("embedding.provider")
			cmder.embeddingTarget = v.GetString("embedding.target")
			cmder.embeddingModel = v.GetString("embedding.model")
			cmder.embeddingDims = v.GetUint("embedding.dimensions")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.inputs = args

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, fs, config.FlagKnowledgeProv, &cmder.knowledgeProvider)
	config.AddStringFlag(cmd, fs, config.FlagDBPath, &cmder.dbPath)
	config.AddUintFlag(cmd, fs, config.FlagChunkSize, &cmder.chunkSize)
	config.AddUintFlag(cmd, fs, config.FlagChunkOverlap, &cmder.chunkOverlap)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingProv, &cmder.embeddingProvider)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingTgt, &cmder.embeddingTarget)
	config.AddStringFlag(cmd, fs, config.FlagEmbeddingMdl, &cmder.embeddingModel)
	config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &cmder.embeddingDims)

	return cmd
}

func (c *indexCommander) run() error {
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

	for _, input := range c.inputs {
		label := utils.Truncate(input, 57)

		err := cliui.Step(os.Stdout, fmt.Sprintf("indexing %s", label), func() error {
			return store.Index(ctx, []string{input})
		})
		if err != nil {
			return fmt.Errorf("indexing %q: %w", input, err)
		}
	}

	size, err := store.Size(ctx)
	if err != nil {
		return fmt.Errorf("reading store size: %w", err)
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.KeyStyle.Render("Indexed chunks:"),
		cliui.ValueStyle.Render(fmt.Sprintf("%d", size)),
	)

	return nil
}
