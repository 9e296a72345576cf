// Package reservoir implements a fixed, randomly-initialized leaky-integrator
// recurrent network (Echo State Network) used as a feature extractor over
// symbol sequences. The weights are generated once at construction and never
// trained; processing a sequence is a deterministic function of the seed and
// the input.
package reservoir

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrConfig is returned for invalid reservoir parameters.
	ErrConfig = errors.New("invalid reservoir configuration")

	// ErrEmptySequence is returned when an input sequence has no vectors,
	// e.g. a document whose tokens were all filtered out.
	ErrEmptySequence = errors.New("empty input sequence")
)

// Config holds the immutable parameters of a reservoir. All fields are fixed
// once New returns; there is no training step that mutates the weights.
type Config struct {
	// InputDim is the width of every input vector.
	InputDim int

	// Size is the number of reservoir units, and so the width of every
	// state vector.
	Size int

	// InputScaling scales the random input-to-reservoir weights.
	InputScaling float64

	// LeakRate is the mixing coefficient between the previous state and the
	// new nonlinear activation, in (0, 1]. 1.0 keeps no memory of the prior
	// state; values near 0 smooth heavily over time.
	LeakRate float64

	// SpectralRadius is the largest-magnitude eigenvalue the recurrent
	// matrix is rescaled to. Must be > 0. Values below 1 favor fading
	// memory.
	SpectralRadius float64

	// InputSparsity is the fraction of nonzero input weights, in (0, 1].
	// Zero defaults to 1.0 (dense).
	InputSparsity float64

	// RecurrentSparsity is the fraction of nonzero recurrent weights, in
	// (0, 1]. Zero defaults to 1.0 (dense).
	RecurrentSparsity float64

	// Seed drives the weight generation. The same seed always produces the
	// same weight matrices.
	Seed int64
}

// Reservoir is a fixed recurrent map from input sequences to state sequences.
// Safe for concurrent use once constructed: Run only reads the weights.
type Reservoir struct {
	cfg  Config
	win  *mat.Dense // Size x InputDim
	wrec *mat.Dense // Size x Size
}

// New validates cfg, generates the two weight structures and rescales the
// recurrent matrix to the configured spectral radius.
func New(cfg Config) (*Reservoir, error) {
	if cfg.InputSparsity == 0 {
		cfg.InputSparsity = 1.0
	}
	if cfg.RecurrentSparsity == 0 {
		cfg.RecurrentSparsity = 1.0
	}

	switch {
	case cfg.InputDim <= 0:
		return nil, fmt.Errorf("%w: input dimension must be positive, got %d", ErrConfig, cfg.InputDim)
	case cfg.Size <= 0:
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrConfig, cfg.Size)
	case cfg.LeakRate <= 0 || cfg.LeakRate > 1:
		return nil, fmt.Errorf("%w: leak rate must be in (0,1], got %g", ErrConfig, cfg.LeakRate)
	case cfg.SpectralRadius <= 0:
		return nil, fmt.Errorf("%w: spectral radius must be > 0, got %g", ErrConfig, cfg.SpectralRadius)
	case cfg.InputSparsity < 0 || cfg.InputSparsity > 1:
		return nil, fmt.Errorf("%w: input sparsity must be in (0,1], got %g", ErrConfig, cfg.InputSparsity)
	case cfg.RecurrentSparsity < 0 || cfg.RecurrentSparsity > 1:
		return nil, fmt.Errorf("%w: recurrent sparsity must be in (0,1], got %g", ErrConfig, cfg.RecurrentSparsity)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible weights, not crypto

	win := mat.NewDense(cfg.Size, cfg.InputDim, nil)
	for i := 0; i < cfg.Size; i++ {
		for j := 0; j < cfg.InputDim; j++ {
			if rng.Float64() < cfg.InputSparsity {
				win.Set(i, j, (rng.Float64()*2-1)*cfg.InputScaling)
			}
		}
	}

	wrec := mat.NewDense(cfg.Size, cfg.Size, nil)
	for i := 0; i < cfg.Size; i++ {
		for j := 0; j < cfg.Size; j++ {
			if rng.Float64() < cfg.RecurrentSparsity {
				wrec.Set(i, j, rng.NormFloat64())
			}
		}
	}

	if err := rescaleSpectralRadius(wrec, cfg.SpectralRadius); err != nil {
		return nil, err
	}

	return &Reservoir{cfg: cfg, win: win, wrec: wrec}, nil
}

// rescaleSpectralRadius scales w in place so its largest-magnitude eigenvalue
// equals radius.
func rescaleSpectralRadius(w *mat.Dense, radius float64) error {
	var eig mat.Eigen
	if ok := eig.Factorize(w, mat.EigenNone); !ok {
		return fmt.Errorf("eigendecomposition of recurrent matrix failed")
	}

	var rho float64
	for _, v := range eig.Values(nil) {
		if a := cmplx.Abs(v); a > rho {
			rho = a
		}
	}
	if rho == 0 {
		return fmt.Errorf("%w: recurrent matrix has zero spectral radius, increase size or sparsity", ErrConfig)
	}

	w.Scale(radius/rho, w)
	return nil
}

// Size returns the number of reservoir units.
func (r *Reservoir) Size() int { return r.cfg.Size }

// InputDim returns the expected input vector width.
func (r *Reservoir) InputDim() int { return r.cfg.InputDim }

// InputWeights returns a read-only view of the input-to-reservoir projection.
func (r *Reservoir) InputWeights() mat.Matrix { return r.win }

// RecurrentWeights returns a read-only view of the recurrent matrix.
func (r *Reservoir) RecurrentWeights() mat.Matrix { return r.wrec }

// Run drives the input sequence through the reservoir and returns the full
// state trajectory, one row per input row, in input order. The state starts
// at the zero vector and follows
//
//	s_t = (1 - a) * s_{t-1} + a * tanh(W_in*x_t + W_rec*s_{t-1})
//
// where a is the leak rate. The full trajectory is materialized, so memory
// is O(sequence length * size).
func (r *Reservoir) Run(inputs mat.Matrix) (*mat.Dense, error) {
	if inputs == nil {
		return nil, ErrEmptySequence
	}

	steps, width := inputs.Dims()
	if steps == 0 {
		return nil, ErrEmptySequence
	}
	if width != r.cfg.InputDim {
		return nil, fmt.Errorf("%w: input vector width %d, reservoir expects %d", ErrConfig, width, r.cfg.InputDim)
	}

	states := mat.NewDense(steps, r.cfg.Size, nil)
	prev := mat.NewVecDense(r.cfg.Size, nil)
	x := mat.NewVecDense(width, nil)
	fromInput := mat.NewVecDense(r.cfg.Size, nil)
	fromState := mat.NewVecDense(r.cfg.Size, nil)

	a := r.cfg.LeakRate
	for t := 0; t < steps; t++ {
		for j := 0; j < width; j++ {
			x.SetVec(j, inputs.At(t, j))
		}

		fromInput.MulVec(r.win, x)
		fromState.MulVec(r.wrec, prev)

		for j := 0; j < r.cfg.Size; j++ {
			s := (1-a)*prev.AtVec(j) + a*math.Tanh(fromInput.AtVec(j)+fromState.AtVec(j))
			states.Set(t, j, s)
			prev.SetVec(j, s)
		}
	}

	return states, nil
}
