// Package cruciblecmder
package cruciblecmder

import (
	"github.com/spf13/cobra"

	analyzecmder "github.com/forgelabs/crucible/cmd/crucible/analyze"
	askcmder "github.com/forgelabs/crucible/cmd/crucible/ask"
	configcmder "github.com/forgelabs/crucible/cmd/crucible/config"
	indexcmder "github.com/forgelabs/crucible/cmd/crucible/index"
	initcmder "github.com/forgelabs/crucible/cmd/crucible/init"
	optimizecmder "github.com/forgelabs/crucible/cmd/crucible/optimize"
	searchcmder "github.com/forgelabs/crucible/cmd/crucible/search"
	versioncmder "github.com/forgelabs/crucible/cmd/version"
)

const crucibleLongDesc string = `Crucible is a semantic knowledge layer for your documents.

Chunk and embed text or files into a knowledge store, then search it
semantically or ask questions answered from the most relevant chunks:
  crucible index <file>...     Ingest documents into the knowledge store
  crucible search <query>      Retrieve the most relevant chunks
  crucible ask <question>      Answer a question from the knowledge store`

const crucibleShortDesc string = "Crucible - Semantic Knowledge Layer"

func NewCrucibleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crucible",
		Short: crucibleShortDesc,
		Long:  crucibleLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .crucible/ directory location")

	// Add subcommands
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(analyzecmder.NewAnalyzeCmd())
	cmd.AddCommand(optimizecmder.NewOptimizeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
