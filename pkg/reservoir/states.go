package reservoir

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Trim drops the first startup rows of a state trajectory. These reflect the
// transient before the recurrent dynamics have warmed up. startup == 0
// returns the trajectory unchanged; startup >= the number of states is a
// configuration error.
func Trim(states *mat.Dense, startup int) (*mat.Dense, error) {
	if states == nil {
		return nil, fmt.Errorf("%w: nil state matrix", ErrConfig)
	}

	rows, cols := states.Dims()
	if startup < 0 {
		return nil, fmt.Errorf("%w: negative startup count %d", ErrConfig, startup)
	}
	if startup >= rows {
		return nil, fmt.Errorf("%w: startup %d must be below state count %d", ErrConfig, startup, rows)
	}
	if startup == 0 {
		return states, nil
	}

	return states.Slice(startup, rows, 0, cols).(*mat.Dense), nil
}

// Join stacks state matrices vertically into one matrix for joint analysis.
// Document boundaries are the caller's responsibility; Join only requires
// that every block has the same state width.
func Join(blocks ...*mat.Dense) (*mat.Dense, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no state matrices to join", ErrConfig)
	}

	_, cols := blocks[0].Dims()
	total := 0
	for _, b := range blocks {
		r, c := b.Dims()
		if c != cols {
			return nil, fmt.Errorf("%w: state width %d does not match %d", ErrConfig, c, cols)
		}
		total += r
	}

	joined := mat.NewDense(total, cols, nil)
	row := 0
	for _, b := range blocks {
		r, _ := b.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < cols; j++ {
				joined.Set(row, j, b.At(i, j))
			}
			row++
		}
	}

	return joined, nil
}

// MeanState collapses a trajectory to a single document-level vector, the
// mean of every state over time.
func MeanState(states *mat.Dense) []float64 {
	rows, cols := states.Dims()
	mean := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			mean[j] += states.At(i, j)
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}
	return mean
}
