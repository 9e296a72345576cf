package runscmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/echolab/echotext/pkg/cliui"
	"github.com/echolab/echotext/pkg/config"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/runlog/registry"
	"github.com/echolab/echotext/pkg/utils"
)

type listCommander struct {
	limit int

	debug     bool
	configDir string
}

func newListCmd() *cobra.Command {
	cmder := &listCommander{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().IntVarP(&cmder.limit, "limit", "l", 0, "Max runs to list (0 = all)")

	return cmd
}

func (c *listCommander) run() error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	regPath, err := registry.ResolvePath(c.configDir, v.GetString("registry.sqlite_path"))
	if err != nil {
		return err
	}
	reg, err := registry.New(regPath, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	runs, err := reg.List(context.Background(), c.limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No runs recorded yet."))
		return nil
	}

	fmt.Println()
	for _, run := range runs {
		fmt.Printf("  %s  %-8s %-10s %s\n",
			cliui.KeyStyle.Render(run.ID),
			run.Kind,
			statusLabel(run.Status),
			cliui.DimStyle.Render(run.CreatedAt.Local().Format(time.DateTime)),
		)
		if run.Error != "" {
			fmt.Printf("      %s\n", cliui.DimStyle.Render(utils.Truncate(run.Error, 80)))
		}
	}
	fmt.Println()

	return nil
}

func statusLabel(status string) string {
	switch status {
	case registry.StatusCompleted:
		return cliui.ValueStyle.Render(status)
	case registry.StatusFailed:
		return cliui.FailMark + " " + status
	default:
		return cliui.DimStyle.Render(status)
	}
}
