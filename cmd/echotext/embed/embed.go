// Package embedcmder provides the document-embedding experiment command.
//
// Every document in a dataset is driven through one large reservoir and
// summarized as the mean of its post-startup states. The resulting
// embeddings are stored in the vector store for similarity queries and
// mapped to two dimensions with t-SNE for a scatter raster.
package embedcmder

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
	"github.com/echolab/echotext/pkg/converter"
	"github.com/echolab/echotext/pkg/converter/onehot"
	"github.com/echolab/echotext/pkg/converter/wordvec"
	"github.com/echolab/echotext/pkg/corpus"
	"github.com/echolab/echotext/pkg/eventstream"
	eventstreamutils "github.com/echolab/echotext/pkg/eventstream/utils"
	"github.com/echolab/echotext/pkg/logger"
	"github.com/echolab/echotext/pkg/raster"
	"github.com/echolab/echotext/pkg/reduce"
	"github.com/echolab/echotext/pkg/reduce/tsnemap"
	"github.com/echolab/echotext/pkg/reservoir"
	"github.com/echolab/echotext/pkg/runlog"
	"github.com/echolab/echotext/pkg/runlog/registry"
	"github.com/echolab/echotext/pkg/vector"
	vectorutils "github.com/echolab/echotext/pkg/vector/utils"
)

const (
	encodingOneHot   = "onehot"
	encodingWord2Vec = "word2vec"
)

type EmbedCommander struct {
	dataset    string
	vocSize    int
	nAuthors   int
	nDocuments int
	encoding   string
	vectors    string
	startup    int
	sparse     bool

	size              uint
	leakRate          float64
	inputScaling      float64
	spectralRadius    float64
	inputSparsity     float64
	recurrentSparsity float64
	seed              int64

	debug     bool
	configDir string
	v         *viper.Viper
	logger    *zap.Logger
}

// Params is the immutable record of an embed run, saved as params.toml.
type Params struct {
	Kind              string  `toml:"kind"`
	Dataset           string  `toml:"dataset"`
	VocSize           int     `toml:"voc_size"`
	NAuthors          int     `toml:"n_authors"`
	NDocuments        int     `toml:"n_documents"`
	Encoding          string  `toml:"encoding"`
	Vectors           string  `toml:"vectors,omitempty"`
	Startup           int     `toml:"startup"`
	Sparse            bool    `toml:"sparse"`
	Size              uint    `toml:"size"`
	LeakRate          float64 `toml:"leak_rate"`
	InputScaling      float64 `toml:"input_scaling"`
	SpectralRadius    float64 `toml:"spectral_radius"`
	InputSparsity     float64 `toml:"input_sparsity"`
	RecurrentSparsity float64 `toml:"recurrent_sparsity"`
	Seed              int64   `toml:"seed"`
}

var embedFlags = config.FlagSet{
	config.FlagEmbedSize:              {Name: "size", ViperKey: "embed.size", Description: "Reservoir size (number of units)"},
	config.FlagEmbedLeakRate:          {Name: "leak-rate", ViperKey: "embed.leak_rate", Description: "Reservoir leak rate in (0, 1]"},
	config.FlagEmbedInputScaling:      {Name: "input-scaling", ViperKey: "embed.input_scaling", Description: "Input weight scaling"},
	config.FlagEmbedSpectralRadius:    {Name: "spectral-radius", ViperKey: "embed.spectral_radius", Description: "Spectral radius of the recurrent weights"},
	config.FlagEmbedInputSparsity:     {Name: "input-sparsity", ViperKey: "embed.input_sparsity", Description: "Fraction of nonzero input weights"},
	config.FlagEmbedRecurrentSparsity: {Name: "recurrent-sparsity", ViperKey: "embed.recurrent_sparsity", Description: "Fraction of nonzero recurrent weights"},
	config.FlagEmbedSeed:              {Name: "seed", ViperKey: "embed.seed", Description: "Random seed for reservoir weights"},
}

var embedFlagKeys = []string{
	config.FlagEmbedSize,
	config.FlagEmbedLeakRate,
	config.FlagEmbedInputScaling,
	config.FlagEmbedSpectralRadius,
	config.FlagEmbedInputSparsity,
	config.FlagEmbedRecurrentSparsity,
	config.FlagEmbedSeed,
}

const embedLongDesc string = `Run the document-embedding experiment.

Loads a dataset laid out as one directory per author, converts every document
to an input sequence (one-hot words or pretrained word vectors), drives it
through one shared echo state network, and averages the post-startup states
into a fixed-size embedding per document. Embeddings are stored in the vector
store, persisted as run artifacts, and mapped to two dimensions with t-SNE
for a scatter raster.

Examples:
  echotext embed --dataset corpus/ --voc-size 5000
  echotext embed --dataset corpus/ --voc-size 5000 --n-authors 10 --n-documents 20
  echotext embed --dataset corpus/ --voc-size 300 --encoding word2vec --vectors vectors.bin`

const embedShortDesc string = "Run the document-embedding experiment"

func NewEmbedCmd() *cobra.Command {
	cmder := &EmbedCommander{}

	cmd := &cobra.Command{
		Use:   "embed",
		Short: embedShortDesc,
		Long:  embedLongDesc,
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
			config.BindRegisteredFlags(cmder.v, cmd, embedFlags, embedFlagKeys)

			if cmder.encoding != encodingOneHot && cmder.encoding != encodingWord2Vec {
				return fmt.Errorf("unsupported encoding %q (want %s or %s)", cmder.encoding, encodingOneHot, encodingWord2Vec)
			}
			if cmder.encoding == encodingWord2Vec && cmder.vectors == "" {
				return fmt.Errorf("--vectors is required with --encoding %s", encodingWord2Vec)
			}

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.dataset, "dataset", "", "Dataset root (one directory per author)")
	cmd.Flags().IntVar(&cmder.vocSize, "voc-size", 0, "Vocabulary size for the one-hot encoding")
	cmd.Flags().IntVar(&cmder.nAuthors, "n-authors", 0, "Max authors to load (0 = all)")
	cmd.Flags().IntVar(&cmder.nDocuments, "n-documents", 0, "Max documents per author (0 = all)")
	cmd.Flags().StringVar(&cmder.encoding, "encoding", encodingOneHot, "Input encoding: onehot or word2vec")
	cmd.Flags().StringVar(&cmder.vectors, "vectors", "", "Pretrained word vectors file (word2vec text format)")
	cmd.Flags().IntVar(&cmder.startup, "startup", 20, "Number of leading states to discard per document")
	cmd.Flags().BoolVar(&cmder.sparse, "sparse", true, "Use sparse reservoir weights (dense when disabled)")

	config.AddUintFlag(cmd, embedFlags, config.FlagEmbedSize, &cmder.size)
	config.AddFloatFlag(cmd, embedFlags, config.FlagEmbedLeakRate, &cmder.leakRate)
	config.AddFloatFlag(cmd, embedFlags, config.FlagEmbedInputScaling, &cmder.inputScaling)
	config.AddFloatFlag(cmd, embedFlags, config.FlagEmbedSpectralRadius, &cmder.spectralRadius)
	config.AddFloatFlag(cmd, embedFlags, config.FlagEmbedInputSparsity, &cmder.inputSparsity)
	config.AddFloatFlag(cmd, embedFlags, config.FlagEmbedRecurrentSparsity, &cmder.recurrentSparsity)
	config.AddIntFlag(cmd, embedFlags, config.FlagEmbedSeed, &cmder.seed)

	cmd.MarkFlagRequired("dataset")
	cmd.MarkFlagRequired("voc-size")

	return cmd
}

func (c *EmbedCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	params := Params{
		Kind:              "embed",
		Dataset:           c.dataset,
		VocSize:           c.vocSize,
		NAuthors:          c.nAuthors,
		NDocuments:        c.nDocuments,
		Encoding:          c.encoding,
		Vectors:           c.vectors,
		Startup:           c.startup,
		Sparse:            c.sparse,
		Size:              c.v.GetUint("embed.size"),
		LeakRate:          c.v.GetFloat64("embed.leak_rate"),
		InputScaling:      c.v.GetFloat64("embed.input_scaling"),
		SpectralRadius:    c.v.GetFloat64("embed.spectral_radius"),
		InputSparsity:     c.v.GetFloat64("embed.input_sparsity"),
		RecurrentSparsity: c.v.GetFloat64("embed.recurrent_sparsity"),
		Seed:              c.v.GetInt64("embed.seed"),
	}
	if !c.sparse {
		params.InputSparsity = 1.0
		params.RecurrentSparsity = 1.0
	}

	runID := registry.NewRunID()
	recorder, err := runlog.NewRecorder(c.configDir, runID, c.logger)
	if err != nil {
		return fmt.Errorf("creating run recorder: %w", err)
	}

	regPath, err := registry.ResolvePath(c.configDir, c.v.GetString("registry.sqlite_path"))
	if err != nil {
		return err
	}
	reg, err := registry.New(regPath, c.logger)
	if err != nil {
		return err
	}
	defer reg.Close()

	ctx := context.Background()
	if _, err := reg.Create(ctx, runID, "embed", recorder.Dir()); err != nil {
		return fmt.Errorf("registering run: %w", err)
	}

	startedAt := time.Now()
	docs, runErr := c.execute(ctx, recorder, params, runID)
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

func (c *EmbedCommander) execute(ctx context.Context, recorder *runlog.Recorder, params Params, runID string) (int, error) {
	if err := recorder.SaveParams(params); err != nil {
		return 0, err
	}

	docs, err := corpus.LoadDataset(c.dataset, c.nAuthors, c.nDocuments)
	if err != nil {
		return 0, fmt.Errorf("loading dataset: %w", err)
	}

	conv, err := c.newConverter(docs)
	if err != nil {
		return len(docs), err
	}

	res, err := reservoir.New(reservoir.Config{
		InputDim:          conv.Dim(),
		Size:              int(params.Size),
		InputScaling:      params.InputScaling,
		LeakRate:          params.LeakRate,
		SpectralRadius:    params.SpectralRadius,
		InputSparsity:     params.InputSparsity,
		RecurrentSparsity: params.RecurrentSparsity,
		Seed:              params.Seed,
	})
	if err != nil {
		return len(docs), fmt.Errorf("creating reservoir: %w", err)
	}

	var embeddings *mat.Dense
	err = cliui.Step(os.Stdout, "Embedding documents", func() error {
		embeddings, err = c.embedDocuments(conv, res, docs)
		return err
	})
	if err != nil {
		return len(docs), err
	}

	err = cliui.Step(os.Stdout, "Storing embeddings", func() error {
		return c.storeEmbeddings(ctx, runID, docs, embeddings)
	})
	if err != nil {
		return len(docs), err
	}

	err = cliui.Step(os.Stdout, "Mapping with t-SNE", func() error {
		return c.rasterizeMap(recorder, embeddings)
	})
	if err != nil {
		return len(docs), err
	}

	if err := recorder.SaveMatrix("embeddings", embeddings); err != nil {
		return len(docs), err
	}
	if err := recorder.SaveRecords("documents", documentRecords(docs)); err != nil {
		return len(docs), err
	}

	if err := recorder.SaveReport(c.buildReport(params, docs)); err != nil {
		return len(docs), err
	}

	return len(docs), nil
}

// newConverter builds the input encoder. The one-hot encoder is fitted on
// every document so the vocabulary covers the whole dataset.
func (c *EmbedCommander) newConverter(docs []corpus.Document) (converter.Converter, error) {
	switch c.encoding {
	case encodingOneHot:
		conv, err := onehot.New(c.vocSize)
		if err != nil {
			return nil, err
		}
		if err := conv.Fit(corpus.Texts(docs)...); err != nil {
			return nil, fmt.Errorf("fitting vocabulary: %w", err)
		}
		return conv, nil
	case encodingWord2Vec:
		conv, err := wordvec.LoadFile(c.vectors)
		if err != nil {
			return nil, fmt.Errorf("loading word vectors: %w", err)
		}
		return conv, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", c.encoding)
	}
}

// embedDocuments returns one embedding row per document, in dataset order.
func (c *EmbedCommander) embedDocuments(conv converter.Converter, res *reservoir.Reservoir, docs []corpus.Document) (*mat.Dense, error) {
	embeddings := mat.NewDense(len(docs), res.Size(), nil)
	for i, doc := range docs {
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

		embeddings.SetRow(i, reservoir.MeanState(trimmed))
		c.logger.Debug("embedded document",
			zap.String("author", doc.Author),
			zap.String("path", doc.Path),
			zap.Int("index", i),
		)
	}
	return embeddings, nil
}

// storeEmbeddings writes every document embedding to the vector store and
// logs the nearest neighbors of each author's first document.
func (c *EmbedCommander) storeEmbeddings(ctx context.Context, runID string, docs []corpus.Document, embeddings *mat.Dense) error {
	dbPath, err := vectorutils.ResolvePath(c.configDir, "")
	if err != nil {
		return err
	}

	driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType: "sqlite",
		DBPath:       dbPath,
		Dimensions:   uint(embeddings.RawMatrix().Cols),
		Logger:       c.logger,
	})
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer driver.Close()

	stored := make([]vector.Document, len(docs))
	for i, doc := range docs {
		stored[i] = vector.Document{
			ID:        fmt.Sprintf("%s/%04d", runID, i),
			RunID:     runID,
			Author:    doc.Author,
			Embedding: rowToFloat32(embeddings, i),
		}
	}
	if err := driver.Add(ctx, stored); err != nil {
		return fmt.Errorf("storing embeddings: %w", err)
	}

	seen := map[string]bool{}
	for i, doc := range docs {
		if seen[doc.Author] {
			continue
		}
		seen[doc.Author] = true

		results, err := driver.Query(ctx, stored[i].Embedding, 4)
		if err != nil {
			c.logger.Warn("querying neighbors", zap.String("id", stored[i].ID), zap.Error(err))
			continue
		}
		for _, r := range results {
			if r.ID == stored[i].ID {
				continue
			}
			c.logger.Info("nearest neighbor",
				zap.String("document", stored[i].ID),
				zap.String("author", doc.Author),
				zap.String("neighbor", r.ID),
				zap.String("neighbor_author", r.Author),
				zap.Float32("score", r.Score),
			)
		}
	}

	return nil
}

// rasterizeMap reduces the embeddings to two dimensions with t-SNE and
// saves the scatter as a single-channel raster.
func (c *EmbedCommander) rasterizeMap(recorder *runlog.Recorder, embeddings *mat.Dense) error {
	reducer, err := tsnemap.New(2)
	if err != nil {
		return err
	}

	points, err := reducer.FitTransform(embeddings)
	if err != nil {
		return fmt.Errorf("fitting t-SNE: %w", err)
	}
	reduce.ScaleToUnit(points)

	img := raster.New()
	n, _ := points.Dims()
	if err := img.Accumulate(points, 0, n); err != nil {
		return fmt.Errorf("rasterizing embedding map: %w", err)
	}

	if err := recorder.SavePlot("tsne", img.EncodePNG); err != nil {
		return err
	}
	return recorder.SaveMatrix("tsne", points)
}

func (c *EmbedCommander) buildReport(params Params, docs []corpus.Document) string {
	authors := map[string]int{}
	for _, doc := range docs {
		authors[doc.Author]++
	}

	var b strings.Builder
	b.WriteString("# Document embedding run\n\n")
	fmt.Fprintf(&b, "- Dataset: `%s` (%d authors, %d documents)\n", params.Dataset, len(authors), len(docs))
	fmt.Fprintf(&b, "- Encoding: %s (vocabulary size %d)\n", params.Encoding, params.VocSize)
	fmt.Fprintf(&b, "- Reservoir: %d units, leak rate %g, input scaling %g, spectral radius %g, input sparsity %g, recurrent sparsity %g, seed %d\n",
		params.Size, params.LeakRate, params.InputScaling, params.SpectralRadius, params.InputSparsity, params.RecurrentSparsity, params.Seed)
	fmt.Fprintf(&b, "- Startup states discarded per document: %d\n", params.Startup)
	b.WriteString("\n## Artifacts\n\n")
	b.WriteString("- `data/embeddings.csv` — one embedding row per document\n")
	b.WriteString("- `data/documents.csv` — document index, path, and author\n")
	b.WriteString("- `data/tsne.csv`, `plots/tsne.png` — two-dimensional embedding map\n")
	return b.String()
}

func (c *EmbedCommander) publishEvent(ctx context.Context, runID, dir string, startedAt time.Time, docs int, runErr error) {
	pub, err := eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: c.v.GetString("events.provider"),
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
			Kind:        "embed",
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

func documentRecords(docs []corpus.Document) [][]string {
	records := make([][]string, len(docs))
	for i, doc := range docs {
		records[i] = []string{fmt.Sprint(i), doc.Path, doc.Author}
	}
	return records
}

func rowToFloat32(m *mat.Dense, row int) []float32 {
	_, cols := m.Dims()
	out := make([]float32, cols)
	for j := 0; j < cols; j++ {
		out[j] = float32(m.At(row, j))
	}
	return out
}
