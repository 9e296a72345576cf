package reservoir_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/reservoir"
)

// validConfig returns a small configuration that passes validation.
func validConfig() reservoir.Config {
	return reservoir.Config{
		InputDim:       4,
		Size:           20,
		InputScaling:   0.5,
		LeakRate:       0.3,
		SpectralRadius: 0.9,
		Seed:           42,
	}
}

// randomInputs builds a deterministic input sequence of the given length.
func randomInputs(steps, width int) *mat.Dense {
	inputs := mat.NewDense(steps, width, nil)
	for i := 0; i < steps; i++ {
		for j := 0; j < width; j++ {
			inputs.Set(i, j, math.Sin(float64(i*width+j)))
		}
	}
	return inputs
}

var _ = Describe("New", func() {
	It("creates a reservoir from a valid configuration", func() {
		r, err := reservoir.New(validConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Size()).To(Equal(20))
		Expect(r.InputDim()).To(Equal(4))
	})

	It("rejects a non-positive spectral radius", func() {
		cfg := validConfig()
		cfg.SpectralRadius = 0
		_, err := reservoir.New(cfg)
		Expect(err).To(MatchError(reservoir.ErrConfig))

		cfg.SpectralRadius = -0.5
		_, err = reservoir.New(cfg)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})

	It("rejects a leak rate outside (0,1]", func() {
		cfg := validConfig()
		cfg.LeakRate = 0
		_, err := reservoir.New(cfg)
		Expect(err).To(MatchError(reservoir.ErrConfig))

		cfg.LeakRate = 1.5
		_, err = reservoir.New(cfg)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})

	It("rejects a non-positive size", func() {
		cfg := validConfig()
		cfg.Size = 0
		_, err := reservoir.New(cfg)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})

	It("accepts sparse weight configurations", func() {
		cfg := validConfig()
		cfg.InputSparsity = 0.5
		cfg.RecurrentSparsity = 0.5
		_, err := reservoir.New(cfg)
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("Run", func() {
	var r *reservoir.Reservoir

	BeforeEach(func() {
		var err error
		r, err = reservoir.New(validConfig())
		Expect(err).NotTo(HaveOccurred())
	})

	It("produces one state per input vector, each of the configured width", func() {
		inputs := randomInputs(37, 4)

		states, err := r.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		rows, cols := states.Dims()
		Expect(rows).To(Equal(37))
		Expect(cols).To(Equal(20))
	})

	It("is deterministic for a fixed seed", func() {
		inputs := randomInputs(25, 4)

		first, err := r.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		other, err := reservoir.New(validConfig())
		Expect(err).NotTo(HaveOccurred())
		second, err := other.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		Expect(mat.EqualApprox(first, second, 1e-12)).To(BeTrue())
	})

	It("differs across seeds", func() {
		inputs := randomInputs(25, 4)

		first, err := r.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		cfg := validConfig()
		cfg.Seed = 7
		other, err := reservoir.New(cfg)
		Expect(err).NotTo(HaveOccurred())
		second, err := other.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		Expect(mat.EqualApprox(first, second, 1e-12)).To(BeFalse())
	})

	It("reduces to a pure instantaneous nonlinearity at leak rate 1.0", func() {
		cfg := validConfig()
		cfg.LeakRate = 1.0
		pure, err := reservoir.New(cfg)
		Expect(err).NotTo(HaveOccurred())

		inputs := randomInputs(10, 4)
		states, err := pure.Run(inputs)
		Expect(err).NotTo(HaveOccurred())

		// With a = 1 the leaky term vanishes: s_t = tanh(W_in*x_t + W_rec*s_{t-1}).
		for t := 1; t < 10; t++ {
			x := inputs.RowView(t)
			prev := states.RowView(t - 1)

			var fromInput, fromState mat.VecDense
			fromInput.MulVec(pure.InputWeights(), x)
			fromState.MulVec(pure.RecurrentWeights(), prev)

			for j := 0; j < 20; j++ {
				want := math.Tanh(fromInput.AtVec(j) + fromState.AtVec(j))
				Expect(states.At(t, j)).To(BeNumerically("~", want, 1e-12))
			}
		}
	})

	It("fails on an empty input sequence", func() {
		_, err := r.Run(nil)
		Expect(err).To(MatchError(reservoir.ErrEmptySequence))
	})

	It("fails on a mismatched input width", func() {
		_, err := r.Run(randomInputs(5, 3))
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})
})

var _ = Describe("Trim", func() {
	It("drops exactly the first startup states", func() {
		states := randomInputs(10, 3)

		trimmed, err := reservoir.Trim(states, 4)
		Expect(err).NotTo(HaveOccurred())

		rows, cols := trimmed.Dims()
		Expect(rows).To(Equal(6))
		Expect(cols).To(Equal(3))
		Expect(trimmed.At(0, 0)).To(Equal(states.At(4, 0)))
	})

	It("returns the identical matrix for startup zero", func() {
		states := randomInputs(10, 3)

		trimmed, err := reservoir.Trim(states, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(trimmed).To(BeIdenticalTo(states))
	})

	It("fails when startup reaches the sequence length", func() {
		states := randomInputs(10, 3)

		_, err := reservoir.Trim(states, 10)
		Expect(err).To(MatchError(reservoir.ErrConfig))

		_, err = reservoir.Trim(states, 11)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})

	It("fails on a negative startup", func() {
		_, err := reservoir.Trim(randomInputs(5, 2), -1)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})
})

var _ = Describe("Join", func() {
	It("stacks state matrices in order", func() {
		a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
		b := mat.NewDense(1, 2, []float64{5, 6})

		joined, err := reservoir.Join(a, b)
		Expect(err).NotTo(HaveOccurred())

		rows, cols := joined.Dims()
		Expect(rows).To(Equal(3))
		Expect(cols).To(Equal(2))
		Expect(joined.At(2, 1)).To(Equal(6.0))
	})

	It("rejects mismatched state widths", func() {
		a := mat.NewDense(2, 2, nil)
		b := mat.NewDense(2, 3, nil)

		_, err := reservoir.Join(a, b)
		Expect(err).To(MatchError(reservoir.ErrConfig))
	})
})

var _ = Describe("MeanState", func() {
	It("averages states over time", func() {
		states := mat.NewDense(2, 2, []float64{0, 2, 4, 6})

		mean := reservoir.MeanState(states)
		Expect(mean).To(Equal([]float64{2, 4}))
	})
})
