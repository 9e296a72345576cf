// Package runscmder provides commands for inspecting recorded experiment runs.
package runscmder

import (
	"github.com/spf13/cobra"
)

const runsLongDesc string = `Inspect recorded experiment runs.

Every cluster and embed invocation records a run in the local registry with
its parameters, status, and artifact directory. Use "runs list" to see past
runs and "runs show" to render a run's report.`

func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded experiment runs",
		Long:  runsLongDesc,
	}

	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())

	return cmd
}
