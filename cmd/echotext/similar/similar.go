// Package similarcmder provides the similarity query command over the
// persisted embeddings of a past embed run.
package similarcmder

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/echolab/echotext/pkg/cliui"
	"github.com/echolab/echotext/pkg/config"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/runlog"
	"github.com/echolab/echotext/pkg/runlog/registry"
	"github.com/echolab/echotext/pkg/similarity"
)

type SimilarCommander struct {
	runID    string
	docIndex int
	top      int

	debug     bool
	configDir string
	logger    *zap.Logger
}

const similarLongDesc string = `Rank the documents of an embed run by similarity to one of them.

Reads the embeddings persisted by a previous "echotext embed" run and ranks
every other document by Euclidean distance to the query document, closest
first.

Examples:
  echotext similar 2f1c… 0
  echotext similar 2f1c… 12 --top 10`

const similarShortDesc string = "Rank an embed run's documents by similarity"

func NewSimilarCmd() *cobra.Command {
	cmder := &SimilarCommander{}

	cmd := &cobra.Command{
		Use:   "similar <run-id> <doc-index>",
		Short: similarShortDesc,
		Long:  similarLongDesc,
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.runID = args[0]
			cmder.docIndex, err = strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid document index %q: %v", args[1], err)
			}

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().IntVarP(&cmder.top, "top", "t", 5, "Number of matches to show")

	return cmd
}

func (c *SimilarCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	regPath, err := registry.ResolvePath(c.configDir, v.GetString("registry.sqlite_path"))
	if err != nil {
		return err
	}
	reg, err := registry.New(regPath, c.logger)
	if err != nil {
		return err
	}
	defer reg.Close()

	run, err := reg.Get(context.Background(), c.runID)
	if err != nil {
		return fmt.Errorf("looking up run %s: %w", c.runID, err)
	}
	if run.Kind != "embed" {
		return fmt.Errorf("run %s is a %s run, similarity needs an embed run", run.ID, run.Kind)
	}

	embeddings, err := runlog.LoadMatrix(run.ArtifactDir, "embeddings")
	if err != nil {
		return fmt.Errorf("loading embeddings: %w", err)
	}

	records, err := runlog.LoadRecords(run.ArtifactDir, "documents")
	if err != nil {
		return fmt.Errorf("loading document records: %w", err)
	}

	// Rank treats columns as documents, embeddings are stored row-per-document.
	matches, err := similarity.Rank(embeddings.T(), c.docIndex)
	if err != nil {
		return fmt.Errorf("ranking documents: %w", err)
	}

	c.printMatches(records, matches)
	return nil
}

func (c *SimilarCommander) printMatches(records [][]string, matches []similarity.Match) {
	fmt.Printf("\n  Documents most similar to %s:\n\n", cliui.KeyStyle.Render(describeDocument(records, c.docIndex)))

	shown := 0
	for _, m := range matches {
		if shown >= c.top {
			break
		}
		shown++
		fmt.Printf("  %2d. %s  %s\n",
			shown,
			cliui.ValueStyle.Render(describeDocument(records, m.Index)),
			cliui.DimStyle.Render(fmt.Sprintf("distance %.4f", m.Distance)),
		)
	}
	fmt.Println()
}

// describeDocument renders "path (author)" when the records cover the index,
// falling back to the bare index for older runs without a documents table.
func describeDocument(records [][]string, index int) string {
	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		if i, err := strconv.Atoi(rec[0]); err == nil && i == index {
			return fmt.Sprintf("%s (%s)", rec[1], rec[2])
		}
	}
	return fmt.Sprintf("document %d", index)
}
