// Package configcmder provides the config command for managing persistent
// crucible configuration stored in the .crucible/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent crucible configuration.

Configuration is stored as config.toml in the .crucible/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  knowledge.provider, knowledge.db_path, knowledge.chunk_size, knowledge.chunk_overlap,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.target, llm.model, llm.max_tokens,
  agent.top_k

Use subcommands to get, set, or list configuration values:
  crucible config set <key> <value>    Set a configuration value
  crucible config get <key>            Get a configuration value
  crucible config list                 List all configuration values

Examples:
  crucible config set llm.provider anthropic
  crucible config set embedding.model text-embedding-3-large
  crucible config get knowledge.provider
  crucible config list`

const configShortDesc string = "Manage persistent crucible configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
