// Package configcmder provides the config command for managing persistent
// echotext configuration stored in the .echotext/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent echotext configuration.

Configuration is stored as config.toml in the .echotext/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  cluster.size, cluster.leak_rate, cluster.input_scaling,
  cluster.spectral_radius, cluster.sparsity, cluster.seed,
  embed.size, embed.leak_rate, embed.input_scaling,
  embed.spectral_radius, embed.input_sparsity, embed.recurrent_sparsity,
  embed.seed,
  registry.sqlite_path, api.listen,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  echotext config set <key> <value>    Set a configuration value
  echotext config get <key>            Get a configuration value
  echotext config list                 List all configuration values

Examples:
  echotext config set embed.size 2000
  echotext config set events.provider kafka
  echotext config get cluster.leak_rate
  echotext config list`

const configShortDesc string = "Manage persistent echotext configuration"

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
