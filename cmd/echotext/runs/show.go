package runscmder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/echolab/echotext/pkg/cliui"
	"github.com/echolab/echotext/pkg/config"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/runlog"
	"github.com/echolab/echotext/pkg/runlog/registry"
)

type showCommander struct {
	runID string

	debug     bool
	configDir string
}

func newShowCmd() *cobra.Command {
	cmder := &showCommander{}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's record and render its report",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.runID = args[0]
			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	return cmd
}

func (c *showCommander) run() error {
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

	run, err := reg.Get(context.Background(), c.runID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Errorf("run %s not found", c.runID)
		}
		return fmt.Errorf("looking up run: %w", err)
	}

	fmt.Println()
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Run:"), run.ID)
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Kind:"), run.Kind)
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Status:"), statusLabel(run.Status))
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Created:"), run.CreatedAt.Local().Format(time.DateTime))
	if !run.CompletedAt.IsZero() {
		fmt.Printf("  %s %s (%s)\n",
			cliui.KeyStyle.Render("Completed:"),
			run.CompletedAt.Local().Format(time.DateTime),
			cliui.FormatDuration(run.CompletedAt.Sub(run.CreatedAt)),
		)
	}
	fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Artifacts:"), cliui.DimStyle.Render(run.ArtifactDir))
	if run.Error != "" {
		fmt.Printf("  %s %s\n", cliui.KeyStyle.Render("Error:"), run.Error)
	}
	fmt.Println()

	report, err := runlog.LoadReport(run.ArtifactDir)
	if err != nil {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("No report available."))
		return nil
	}

	rendered, err := cliui.RenderMarkdown(report)
	if err != nil {
		fmt.Println(report)
		return nil
	}
	fmt.Println(rendered)

	return nil
}
