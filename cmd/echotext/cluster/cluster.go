// Package clustercmder provides the author-clustering experiment command.
//
// Two authors' texts are converted to part-of-speech one-hot sequences,
// driven through one shared reservoir, and the post-startup states are
// projected into a shared PCA basis. The first two components of each
// author's point cloud are rasterized into the two channels of a single
// image, making stylistic separation visible as color separation.
package clustercmder

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/cliui"
	"github.com/echolab/echotext/pkg/config"
	"github.com/echolab/echotext/pkg/converter/pos"
	"github.com/echolab/echotext/pkg/corpus"
	"github.com/echolab/echotext/pkg/eventstream"
	eventstreamutils "github.com/echolab/echotext/pkg/eventstream/utils"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/raster"
	"github.com/echolab/echotext/pkg/reduce"
	"github.com/echolab/echotext/pkg/reduce/pca"
	"github.com/echolab/echotext/pkg/reservoir"
	"github.com/echolab/echotext/pkg/runlog"
	"github.com/echolab/echotext/pkg/runlog/registry"
)

type ClusterCommander struct {
	author1     string
	author2     string
	nfile       int
	startup     int
	components  int
	lang        string
	excludeTags []string

	size           uint
	leakRate       float64
	inputScaling   float64
	spectralRadius float64
	sparsity       float64
	seed           int64

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

// Params is the immutable record of a cluster run, saved as params.toml.
type Params struct {
	Kind           string   `toml:"kind"`
	Author1        string   `toml:"author1"`
	Author2        string   `toml:"author2"`
	NFile          int      `toml:"nfile"`
	Startup        int      `toml:"startup"`
	Components     int      `toml:"components"`
	Lang           string   `toml:"lang"`
	ExcludeTags    []string `toml:"exclude_tags,omitempty"`
	Size           uint     `toml:"size"`
	LeakRate       float64  `toml:"leak_rate"`
	InputScaling   float64  `toml:"input_scaling"`
	SpectralRadius float64  `toml:"spectral_radius"`
	Sparsity       float64  `toml:"sparsity"`
	Seed           int64    `toml:"seed"`
}

var clusterFlags = config.FlagSet{
	config.FlagClusterSize:           {Name: "size", ViperKey: "cluster.size", Description: "Reservoir size (number of units)"},
	config.FlagClusterLeakRate:       {Name: "leak-rate", ViperKey: "cluster.leak_rate", Description: "Reservoir leak rate in (0, 1]"},
	config.FlagClusterInputScaling:   {Name: "input-scaling", ViperKey: "cluster.input_scaling", Description: "Input weight scaling"},
	config.FlagClusterSpectralRadius: {Name: "spectral-radius", ViperKey: "cluster.spectral_radius", Description: "Spectral radius of the recurrent weights"},
	config.FlagClusterSparsity:       {Name: "sparsity", ViperKey: "cluster.sparsity", Description: "Fraction of nonzero weights in (0, 1]"},
	config.FlagClusterSeed:           {Name: "seed", ViperKey: "cluster.seed", Description: "Random seed for reservoir weights"},
}

var clusterFlagKeys = []string{
	config.FlagClusterSize,
	config.FlagClusterLeakRate,
	config.FlagClusterInputScaling,
	config.FlagClusterSpectralRadius,
	config.FlagClusterSparsity,
	config.FlagClusterSeed,
}

const clusterLongDesc string = `Run the author-clustering experiment.

Converts each author's texts to part-of-speech one-hot sequences, drives them
through one shared echo state network, and projects the post-startup reservoir
states of both authors into a shared PCA basis. The first two components are
rasterized into a two-channel image (one channel per author) saved in the run
directory.

Examples:
  echotext cluster --author1 corpus/dickens --author2 corpus/austen
  echotext cluster --author1 a/ --author2 b/ --nfile 10 --startup 20 --seed 7`

const clusterShortDesc string = "Run the author-clustering experiment"

func NewClusterCmd() *cobra.Command {
	cmder := &ClusterCommander{}

	cmd := &cobra.Command{
		Use:   "cluster",
		Short: clusterShortDesc,
		Long:  clusterLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			cmder.v, err = config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("initializing config: %w", err)
			}
			config.BindRegisteredFlags(cmder.v, cmd, clusterFlags, clusterFlagKeys)

			if cmder.lang != "en" {
				return fmt.Errorf("unsupported language %q (only en tagging is available)", cmder.lang)
			}

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.author1, "author1", "", "Directory of the first author's .txt files")
	cmd.Flags().StringVar(&cmder.author2, "author2", "", "Directory of the second author's .txt files")
	cmd.Flags().IntVarP(&cmder.nfile, "nfile", "n", 0, "Max files per author (0 = all)")
	cmd.Flags().IntVar(&cmder.startup, "startup", 20, "Number of leading states to discard per document")
	cmd.Flags().IntVar(&cmder.components, "components", 2, "Number of PCA components")
	cmd.Flags().StringVar(&cmder.lang, "lang", "en", "Corpus language for the part-of-speech tagger")
	cmd.Flags().StringSliceVar(&cmder.excludeTags, "exclude-tags", nil, "Part-of-speech tags to drop from input sequences")

	config.AddUintFlag(cmd, clusterFlags, config.FlagClusterSize, &cmder.size)
	config.AddFloatFlag(cmd, clusterFlags, config.FlagClusterLeakRate, &cmder.leakRate)
	config.AddFloatFlag(cmd, clusterFlags, config.FlagClusterInputScaling, &cmder.inputScaling)
	config.AddFloatFlag(cmd, clusterFlags, config.FlagClusterSpectralRadius, &cmder.spectralRadius)
	config.AddFloatFlag(cmd, clusterFlags, config.FlagClusterSparsity, &cmder.sparsity)
	config.AddIntFlag(cmd, clusterFlags, config.FlagClusterSeed, &cmder.seed)

	cmd.MarkFlagRequired("author1")
	cmd.MarkFlagRequired("author2")

	return cmd
}

func (c *ClusterCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	params := Params{
		Kind:           "cluster",
		Author1:        c.author1,
		Author2:        c.author2,
		NFile:          c.nfile,
		Startup:        c.startup,
		Components:     c.components,
		Lang:           c.lang,
		ExcludeTags:    c.excludeTags,
		Size:           c.v.GetUint("cluster.size"),
		LeakRate:       c.v.GetFloat64("cluster.leak_rate"),
		InputScaling:   c.v.GetFloat64("cluster.input_scaling"),
		SpectralRadius: c.v.GetFloat64("cluster.spectral_radius"),
		Sparsity:       c.v.GetFloat64("cluster.sparsity"),
		Seed:           c.v.GetInt64("cluster.seed"),
	}

	runID := registry.NewRunID()
	recorder, err := runlog.NewRecorder(c.configDir, runID, c.logger)
	if err != nil {
		return fmt.Errorf("creating run recorder: %w", err)
	}

	reg, err := c.openRegistry()
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := context.Background()
	if _, err := reg.Create(ctx, runID, "cluster", recorder.Dir()); err != nil {
		return fmt.Errorf("registering run: %w", err)
	}

	startedAt := time.Now()
	docs, runErr := c.execute(recorder, params)
	if runErr != nil {
		if err := reg.Fail(ctx, runID, runErr); err != nil {
			c.logger.Warn("marking run failed", zap.Error(err))
		}
	} else if err := reg.Complete(ctx, runID); err != nil {
		c.logger.Warn("marking run completed", zap.Error(err))
	}

	c.publishEvent(ctx, runID, recorder.Dir(), startedAt, docs, runErr)

	if runErr != nil {
		return runErr
	}

	fmt.Printf("\n  %s Run %s\n  %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(runID),
		cliui.DimStyle.Render(recorder.Dir()),
	)
	return nil
}

// execute runs the experiment pipeline and writes all artifacts.
// It returns the number of documents processed.
func (c *ClusterCommander) execute(recorder *runlog.Recorder, params Params) (int, error) {
	if err := recorder.SaveParams(params); err != nil {
		return 0, err
	}

	docs1, err := corpus.LoadDir(c.author1, c.nfile)
	if err != nil {
		return 0, fmt.Errorf("loading author1 corpus: %w", err)
	}
	docs2, err := corpus.LoadDir(c.author2, c.nfile)
	if err != nil {
		return 0, fmt.Errorf("loading author2 corpus: %w", err)
	}
	total := len(docs1) + len(docs2)

	conv := pos.New(pos.WithExclusions(c.excludeTags...))

	res, err := reservoir.New(reservoir.Config{
		InputDim:          conv.Dim(),
		Size:              int(params.Size),
		InputScaling:      params.InputScaling,
		LeakRate:          params.LeakRate,
		SpectralRadius:    params.SpectralRadius,
		InputSparsity:     params.Sparsity,
		RecurrentSparsity: params.Sparsity,
		Seed:              params.Seed,
	})
	if err != nil {
		return total, fmt.Errorf("creating reservoir: %w", err)
	}

	var states1, states2 *mat.Dense
	err = cliui.Step(os.Stdout, "Collecting reservoir states", func() error {
		states1, err = c.collectStates(conv, res, docs1)
		if err != nil {
			return fmt.Errorf("author1: %w", err)
		}
		states2, err = c.collectStates(conv, res, docs2)
		if err != nil {
			return fmt.Errorf("author2: %w", err)
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	var comps1, comps2 *mat.Dense
	err = cliui.Step(os.Stdout, "Projecting into shared PCA basis", func() error {
		joined, err := reservoir.Join(states1, states2)
		if err != nil {
			return err
		}

		reducer, err := pca.New(c.components)
		if err != nil {
			return err
		}
		if err := reducer.Fit(joined); err != nil {
			return fmt.Errorf("fitting PCA: %w", err)
		}

		comps1, err = reducer.Transform(states1)
		if err != nil {
			return fmt.Errorf("transforming author1 states: %w", err)
		}
		comps2, err = reducer.Transform(states2)
		if err != nil {
			return fmt.Errorf("transforming author2 states: %w", err)
		}
		return nil
	})
	if err != nil {
		return total, err
	}

	err = cliui.Step(os.Stdout, "Rasterizing component clouds", func() error {
		points1 := firstTwoComponents(comps1)
		points2 := firstTwoComponents(comps2)
		reduce.ScaleToUnit(points1, points2)

		img := raster.New()
		n1, _ := points1.Dims()
		n2, _ := points2.Dims()
		if err := img.Accumulate(points1, 0, n1); err != nil {
			return fmt.Errorf("rasterizing author1: %w", err)
		}
		if err := img.Accumulate(points2, 1, n2); err != nil {
			return fmt.Errorf("rasterizing author2: %w", err)
		}

		if err := recorder.SavePlot("components", img.EncodePNG); err != nil {
			return err
		}
		if err := recorder.SaveMatrix("components_author1", comps1); err != nil {
			return err
		}
		return recorder.SaveMatrix("components_author2", comps2)
	})
	if err != nil {
		return total, err
	}

	report := c.buildReport(params, len(docs1), len(docs2), states1, states2)
	if err := recorder.SaveReport(report); err != nil {
		return total, err
	}

	return total, nil
}

// collectStates converts every document, drives it through the shared
// reservoir and vertically joins the post-startup states.
func (c *ClusterCommander) collectStates(conv *pos.Converter, res *reservoir.Reservoir, docs []corpus.Document) (*mat.Dense, error) {
	blocks := make([]*mat.Dense, 0, len(docs))
	for _, doc := range docs {
		seq, err := conv.Convert(doc.Text)
		if err != nil {
			return nil, fmt.Errorf("converting %s: %w", doc.Path, err)
		}

		states, err := res.Run(seq)
		if err != nil {
			return nil, fmt.Errorf("running reservoir on %s: %w", doc.Path, err)
		}

		trimmed, err := reservoir.Trim(states, c.startup)
		if err != nil {
			return nil, fmt.Errorf("trimming states of %s: %w", doc.Path, err)
		}

		c.logger.Debug("collected document states",
			zap.String("path", doc.Path),
			zap.Int("inputs", rowCount(seq)),
			zap.Int("states", rowCount(trimmed)),
		)
		blocks = append(blocks, trimmed)
	}

	return reservoir.Join(blocks...)
}

func (c *ClusterCommander) buildReport(params Params, n1, n2 int, states1, states2 *mat.Dense) string {
	var b strings.Builder
	b.WriteString("# Author clustering run\n\n")
	fmt.Fprintf(&b, "- Author 1: `%s` (%d documents, %d states)\n", params.Author1, n1, rowCount(states1))
	fmt.Fprintf(&b, "- Author 2: `%s` (%d documents, %d states)\n", params.Author2, n2, rowCount(states2))
	fmt.Fprintf(&b, "- Reservoir: %d units, leak rate %g, input scaling %g, spectral radius %g, sparsity %g, seed %d\n",
		params.Size, params.LeakRate, params.InputScaling, params.SpectralRadius, params.Sparsity, params.Seed)
	fmt.Fprintf(&b, "- Startup states discarded per document: %d\n", params.Startup)
	fmt.Fprintf(&b, "- PCA components: %d\n", params.Components)
	b.WriteString("\n## Artifacts\n\n")
	b.WriteString("- `plots/components.png` — two-channel raster of the first two components\n")
	b.WriteString("- `data/components_author1.csv`, `data/components_author2.csv` — PCA projections\n")
	return b.String()
}

func (c *ClusterCommander) openRegistry() (*registry.Registry, error) {
	path, err := registry.ResolvePath(c.configDir, c.v.GetString("registry.sqlite_path"))
	if err != nil {
		return nil, err
	}
	return registry.New(path, c.logger)
}

func (c *ClusterCommander) publishEvent(ctx context.Context, runID, dir string, startedAt time.Time, docs int, runErr error) {
	provider := c.v.GetString("events.provider")
	pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: provider,
		Brokers:      c.v.GetString("events.brokers"),
		Topic:        c.v.GetString("events.topic"),
		Logger:       c.logger,
	})
	if err != nil {
		c.logger.Warn("creating event publisher", zap.Error(err))
		return
	}
	defer pub.Close()

	completedAt := time.Now()
	status := registry.StatusCompleted
	errMsg := ""
	if runErr != nil {
		status = registry.StatusFailed
		errMsg = runErr.Error()
	}

	event := &eventstream.RunCompletedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeRunCompleted,
		EventID:       registry.NewRunID(),
		EmittedAt:     completedAt,
		Run: eventstream.RunMeta{
			ID:          runID,
			Kind:        "cluster",
			Status:      status,
			ArtifactDir: dir,
			Error:       errMsg,
			StartedAt:   startedAt,
			CompletedAt: completedAt,
			DurationMs:  completedAt.Sub(startedAt).Milliseconds(),
			Documents:   docs,
		},
	}

	if err := pub.PublishRun(ctx, event); err != nil {
		c.logger.Warn("publishing run event", zap.Error(err))
	}
}

func firstTwoComponents(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	if cols <= 2 {
		return mat.DenseCopyOf(m)
	}
	return mat.DenseCopyOf(m.Slice(0, rows, 0, 2))
}

func rowCount(m mat.Matrix) int {
	rows, _ := m.Dims()
	return rows
}
