// Package analyzecmder provides the analyze command, a staged extraction
// and reasoning pipeline over a raw task description.
package analyzecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/cliui"
	"github.com/forgelabs/crucible/pkg/config"
	"github.com/forgelabs/crucible/pkg/knowledge"
	"github.com/forgelabs/crucible/pkg/linear"
	providerutils "github.com/forgelabs/crucible/pkg/llm/provider/utils"
	"github.com/forgelabs/crucible/pkg/logger"
)

type analyzeCommander struct {
	input   string
	tasks   []string
	jsonOut bool

	llmProvider  string
	llmTarget    string
	llmModel     string
	llmMaxTokens uint

	debug  bool
	logger *zap.Logger
}

const analyzeLongDesc string = `Analyze a materials task description through a staged pipeline.

The input (a file path or inline text) is first extracted into
structured material/simulation data, then each selected reasoning task
runs against the extraction:
  schema_validation, constraint_verification, feature_extraction,
  normalization, risk_ranking
With no --task flags every task runs. The run closes with a
human-readable summary of the actions taken and what each produced.

Example:
  crucible analyze task.md
  crucible analyze "anneal Inconel 718 at 1250K for 4h" --task risk_ranking
  crucible analyze task.md --json --llm-provider anthropic`

const analyzeShortDesc string = "Analyze a task description through the extraction pipeline"

func NewAnalyzeCmd() *cobra.Command {
	cmder := &analyzeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "analyze <file-or-text>",
		Short: analyzeShortDesc,
		Long:  analyzeLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}

			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagLLMProv,
				config.FlagLLMTgt,
				config.FlagLLMMdl,
				config.FlagLLMMaxTokens,
			})

			cmder.llmProvider = v.GetString("llm.provider")
			cmder.llmTarget = v.GetString("llm.target")
			cmder.llmModel = v.GetString("llm.model")
			cmder.llmMaxTokens = v.GetUint("llm.max_tokens")

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.input = args[0]

			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().StringArrayVar(&cmder.tasks, "task", nil, "Reasoning task to run (repeatable, default all)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the full result as JSON")
	config.AddStringFlag(cmd, fs, config.FlagLLMProv, &cmder.llmProvider)
	config.AddStringFlag(cmd, fs, config.FlagLLMTgt, &cmder.llmTarget)
	config.AddStringFlag(cmd, fs, config.FlagLLMMdl, &cmder.llmModel)
	config.AddUintFlag(cmd, fs, config.FlagLLMMaxTokens, &cmder.llmMaxTokens)

	return cmd
}

func (c *analyzeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	ctx := context.Background()

	text, source, _, err := knowledge.ResolveInput(c.input)
	if err != nil {
		return fmt.Errorf("resolving input: %w", err)
	}
	c.logger.Debug("resolved analyze input", zap.String("source", source))

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

	pipeline := linear.New(prov, c.logger)

	result, err := pipeline.Run(ctx, text, c.tasks)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	if c.jsonOut {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	rendered, err := cliui.RenderMarkdown(result.Summary)
	if err != nil {
		// Fall back to the raw summary when the terminal renderer fails.
		fmt.Println(result.Summary)
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
