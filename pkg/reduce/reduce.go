// Package reduce defines the dimensionality-reduction contracts used to
// project aggregated reservoir-state matrices into low-dimensional embedding
// spaces. Implementations delegate the numerics to external libraries.
package reduce

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when Transform is called before Fit.
var ErrNotFitted = errors.New("reducer has not been fitted")

// Linear reducers are fitted once on a joint matrix and then applied
// separately to sub-matrices, so every slice lands in one shared coordinate
// frame. Input and output are row-per-observation matrices.
type Linear interface {
	Fit(m mat.Matrix) error
	Transform(m mat.Matrix) (*mat.Dense, error)
}

// Nonlinear reducers have no held-out transform step; fitting and projecting
// happen on one matrix directly.
type Nonlinear interface {
	FitTransform(m mat.Matrix) (*mat.Dense, error)
}

// ScaleToUnit rescales the given matrices in place by one shared factor per
// column so every value lands in [-1, 1]. The factor is the largest absolute
// value seen for that column across all matrices, which keeps slices of a
// joint projection comparable after scaling.
func ScaleToUnit(ms ...*mat.Dense) {
	if len(ms) == 0 {
		return
	}

	_, cols := ms[0].Dims()
	for c := 0; c < cols; c++ {
		var max float64
		for _, m := range ms {
			rows, _ := m.Dims()
			for r := 0; r < rows; r++ {
				if a := math.Abs(m.At(r, c)); a > max {
					max = a
				}
			}
		}
		if max == 0 {
			continue
		}
		for _, m := range ms {
			rows, _ := m.Dims()
			for r := 0; r < rows; r++ {
				m.Set(r, c, m.At(r, c)/max)
			}
		}
	}
}
