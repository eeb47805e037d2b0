// Package optimizecmder provides the optimize command, an LLM-driven search
// for the cooling rate that maximizes simulated yield strength.
package optimizecmder

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/forgelabs/crucible/pkg/config"
	providerutils "github.com/forgelabs/crucible/pkg/llm/provider/utils"
	"github.com/forgelabs/crucible/pkg/logger"
	"github.com/forgelabs/crucible/pkg/sim"
)

var (
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
)

type optimizeCommander struct {
	coolingRate float64
	duration    float64
	iterations  int

	llmProvider  string
	llmTarget    string
	llmModel     string
	llmMaxTokens uint

	debug  bool
	logger *zap.Logger
}

const optimizeLongDesc string = `Optimize the heat-treatment cooling rate for a nickel superalloy.

Runs a grain-evolution simulation in a loop. After each run the history
of attempts is handed to the completion provider, which suggests the
next cooling rate to try. Runs whose final porosity exceeds the failure
threshold count as failures. Prints the full attempt history and the
best successful cooling rate found.

Example:
  crucible optimize
  crucible optimize --cooling-rate 20 --iterations 5
  crucible optimize --duration 6 --llm-provider anthropic`

const optimizeShortDesc string = "Optimize a simulated heat treatment"

func NewOptimizeCmd() *cobra.Command {
	cmder := &optimizeCommander{}
	fs := config.DefaultFlagSet()

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: optimizeShortDesc,
		Long:  optimizeLongDesc,
		Args:  cobra.NoArgs,
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
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run()
		},
	}

	cmd.Flags().Float64Var(&cmder.coolingRate, "cooling-rate", sim.DefaultCoolingRate, "Initial cooling rate in K/min")
	cmd.Flags().Float64Var(&cmder.duration, "duration", 0, "Heat-treatment duration in hours (default 4)")
	cmd.Flags().IntVarP(&cmder.iterations, "iterations", "n", sim.DefaultMaxIterations, "Number of optimization iterations")
	config.AddStringFlag(cmd, fs, config.FlagLLMProv, &cmder.llmProvider)
	config.AddStringFlag(cmd, fs, config.FlagLLMTgt, &cmder.llmTarget)
	config.AddStringFlag(cmd, fs, config.FlagLLMMdl, &cmder.llmModel)
	config.AddUintFlag(cmd, fs, config.FlagLLMMaxTokens, &cmder.llmMaxTokens)

	return cmd
}

func (c *optimizeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

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

	agent := sim.NewAgent(sim.AgentConfig{
		DurationHours: c.duration,
		MaxIterations: c.iterations,
	}, prov, c.logger)

	fmt.Printf("\n%s %s\n\n",
		headerStyle.Render("Optimizing cooling rate for"),
		headerStyle.Render(sim.MaterialName),
	)

	history, err := agent.RunLoop(context.Background(), c.coolingRate)
	if err != nil {
		return fmt.Errorf("optimization loop: %w", err)
	}

	for i, entry := range history {
		mark := successStyle.Render("ok")
		if !entry.Success {
			mark = failStyle.Render("failed")
		}
		fmt.Printf("  %s %s %s\n",
			stepStyle.Render(fmt.Sprintf("#%d", i+1)),
			fmt.Sprintf("cooling %.2f K/min -> yield %.2f MPa", entry.CoolingRateKPerMin, entry.YieldStrengthMPa),
			mark,
		)
	}

	fmt.Printf("\n%s\n", agent.Report())
	return nil
}

func providerAPIKey(providerType string) string {
	switch providerType {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}
