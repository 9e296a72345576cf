// Package pca provides the linear reducer, principal component analysis via
// gonum's stat package.
package pca

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/echolab/echotext/pkg/reduce"
)

// ErrConfig is returned for an invalid component count or unusable input.
var ErrConfig = errors.New("invalid PCA configuration")

// PCA projects row-per-observation matrices onto their leading principal
// components. Fit once on a joint matrix, then Transform each slice so both
// land in the same basis.
type PCA struct {
	components int
	mean       []float64
	proj       *mat.Dense // input dims x components
}

var _ reduce.Linear = (*PCA)(nil)

// New creates a PCA reducer with the given number of output components.
func New(components int) (*PCA, error) {
	if components <= 0 {
		return nil, fmt.Errorf("%w: components must be positive, got %d", ErrConfig, components)
	}
	return &PCA{components: components}, nil
}

// Fit computes the principal component basis and column means of m.
func (p *PCA) Fit(m mat.Matrix) error {
	rows, cols := m.Dims()
	if rows < 2 {
		return fmt.Errorf("%w: need at least 2 observations, got %d", ErrConfig, rows)
	}
	if p.components > cols {
		return fmt.Errorf("%w: %d components from %d input dimensions", ErrConfig, p.components, cols)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(m, nil); !ok {
		return fmt.Errorf("principal component decomposition failed")
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	proj := mat.NewDense(cols, p.components, nil)
	proj.Copy(vecs.Slice(0, cols, 0, p.components))

	mean := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		mean[j] = stat.Mean(col, nil)
	}

	p.proj = proj
	p.mean = mean
	return nil
}

// Transform centers m with the fitted means and projects it onto the fitted
// basis. The output has the same row count and p.components columns.
func (p *PCA) Transform(m mat.Matrix) (*mat.Dense, error) {
	if p.proj == nil {
		return nil, reduce.ErrNotFitted
	}

	rows, cols := m.Dims()
	if cols != len(p.mean) {
		return nil, fmt.Errorf("%w: input width %d, fitted on %d", ErrConfig, cols, len(p.mean))
	}

	centered := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			centered.Set(i, j, m.At(i, j)-p.mean[j])
		}
	}

	out := mat.NewDense(rows, p.components, nil)
	out.Mul(centered, p.proj)
	return out, nil
}
