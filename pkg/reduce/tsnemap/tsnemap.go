// Package tsnemap provides the nonlinear reducer, t-SNE via
// github.com/danaugrs/go-tsne. t-SNE has no held-out transform; fitting and
// projecting are a single step.
package tsnemap

import (
	"errors"
	"fmt"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/reduce"
)

// ErrConfig is returned for an invalid component count.
var ErrConfig = errors.New("invalid t-SNE configuration")

// Defaults matching common exploratory settings.
const (
	DefaultPerplexity   = 30.0
	DefaultLearningRate = 200.0
	DefaultIterations   = 300
)

// TSNE reduces a row-per-observation matrix to a low-dimensional embedding.
type TSNE struct {
	components   int
	perplexity   float64
	learningRate float64
	iterations   int
}

var _ reduce.Nonlinear = (*TSNE)(nil)

// Option adjusts t-SNE hyperparameters.
type Option func(*TSNE)

// WithPerplexity sets the perplexity of the conditional distributions.
func WithPerplexity(p float64) Option {
	return func(t *TSNE) { t.perplexity = p }
}

// WithLearningRate sets the gradient-descent learning rate.
func WithLearningRate(lr float64) Option {
	return func(t *TSNE) { t.learningRate = lr }
}

// WithIterations sets the number of optimization steps.
func WithIterations(n int) Option {
	return func(t *TSNE) { t.iterations = n }
}

// New creates a t-SNE reducer with the given output dimensionality.
func New(components int, opts ...Option) (*TSNE, error) {
	if components <= 0 {
		return nil, fmt.Errorf("%w: components must be positive, got %d", ErrConfig, components)
	}

	t := &TSNE{
		components:   components,
		perplexity:   DefaultPerplexity,
		learningRate: DefaultLearningRate,
		iterations:   DefaultIterations,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// FitTransform embeds m into the configured number of components. The row
// count is preserved; each row of the output is the embedding of the
// corresponding input row.
func (t *TSNE) FitTransform(m mat.Matrix) (*mat.Dense, error) {
	rows, _ := m.Dims()
	if rows < 2 {
		return nil, fmt.Errorf("%w: need at least 2 observations, got %d", ErrConfig, rows)
	}

	embedder := tsne.NewTSNE(t.components, t.perplexity, t.learningRate, t.iterations, false)
	var embedded mat.Matrix = embedder.EmbedData(mat.DenseCopyOf(m), nil)

	out, ok := embedded.(*mat.Dense)
	if !ok {
		out = mat.DenseCopyOf(embedded)
	}
	return out, nil
}
