// Package echotextcmder provides the root echotext command.
package echotextcmder

import (
	"github.com/spf13/cobra"

	clustercmder "github.com/echolab/echotext/cmd/echotext/cluster"
	configcmder "github.com/echolab/echotext/cmd/echotext/config"
	embedcmder "github.com/echolab/echotext/cmd/echotext/embed"
	runscmder "github.com/echolab/echotext/cmd/echotext/runs"
	servecmder "github.com/echolab/echotext/cmd/echotext/serve"
	similarcmder "github.com/echolab/echotext/cmd/echotext/similar"
)

const echotextLongDesc string = `Echotext explores text authorship with echo state networks.

Run experiments using:
  echotext cluster     Author clustering from part-of-speech dynamics
  echotext embed       Document embeddings from reservoir states
  echotext similar     Rank documents of a run by embedding distance

Inspect results using:
  echotext runs        List and show past runs
  echotext serve       Run the results API server`

const echotextShortDesc string = "Echotext - Authorship experiments with echo state networks"

func NewEchotextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echotext",
		Short: echotextShortDesc,
		Long:  echotextLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .echotext directory location")

	// Add subcommands
	cmd.AddCommand(clustercmder.NewClusterCmd())
	cmd.AddCommand(embedcmder.NewEmbedCmd())
	cmd.AddCommand(similarcmder.NewSimilarCmd())
	cmd.AddCommand(runscmder.NewRunsCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(servecmder.NewServeCmd())

	return cmd
}
