// Package searchcmder provides the search command for semantic retrieval
// over the knowledge store.
package searchcmder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/chunk"
	"github.com/forgelabs/crucible/pkg/config"
	embeddingutils "github.com/forgelabs/crucible/pkg/embeddings/utils"
	"github.com/forgelabs/crucible/pkg/knowledge"
	knowledgeutils "github.com/forgelabs/crucible/pkg/knowledge/utils"
	"github.com/forgelabs/crucible/pkg/logger"
	"github.com/forgelabs/crucible/pkg/utils"
)

var (
	rankStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	scoreStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type searchCommander struct {
	query string
	kb    []string
	quiet bool

	topK              uint
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

const searchLongDesc string = `Search the knowledge store semantically.

Returns the chunks most similar to the query text, ranked by cosine
similarity. Sources passed via --kb are ingested before searching,
which is the usual mode with the default in-memory store. With a
persistent sqlite store, previously indexed chunks are searched too.

Use --quiet to output only chunk contents, one per line. This is useful
for piping into other tools.

Example:
  crucible search "solidification cracking" --kb alloys.md --kb notes.txt
  crucible search "grain refinement" --knowledge-provider sqlite --db-path kb.sqlite
  crucible search "porosity thresholds" --kb alloys.md --top-k 3`

const searchShortDesc string = "Search the knowledge store"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.query = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringArrayVar(&cmder.kb, "kb", nil, "File or text to ingest before searching (repeatable)")
	cmd.Flags().BoolVarP(&cmder.quiet, "quiet", "q", false, "Output only chunk contents, one per line (for piping)")
	config.AddUintFlag(cmd, fs, config.FlagTopK, &cmder.topK)
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

func (c *searchCommander) run() error {
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

	if len(c.kb) > 0 {
		if err := store.Index(ctx, c.kb); err != nil {
			return fmt.Errorf("ingesting knowledge: %w", err)
		}
	}

	results, err := store.Search(ctx, c.query, int(c.topK))
	if err != nil {
		return fmt.Errorf("searching: %w", err)
	}

	if len(results) == 0 {
		if !c.quiet {
			fmt.Println("No results found.")
		}
		return nil
	}

	if c.quiet {
		for _, result := range results {
			fmt.Println(strings.ReplaceAll(result.Content, "\n", " "))
		}
		return nil
	}

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Search Results for:"),
		sourceStyle.Render(fmt.Sprintf("%q", c.query)),
	)

	for i, result := range results {
		printResult(i+1, result)
	}

	return nil
}

func printResult(rank int, result knowledge.Result) {
	fmt.Printf("  %s  %s  %s\n",
		rankStyle.Render(fmt.Sprintf("#%d", rank)),
		scoreStyle.Render(fmt.Sprintf("score: %.4f", result.Score)),
		sourceStyle.Render(result.Source),
	)

	if result.Title != "" && result.Title != result.Source {
		fmt.Printf("  %s\n", dimStyle.Render(result.Title))
	}

	preview := strings.ReplaceAll(result.Content, "\n", " ")
	preview = utils.Truncate(preview, 160)
	fmt.Printf("  %s\n\n", previewStyle.Render(preview))
}
