package raster_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/raster"
)

var _ = Describe("Accumulate", func() {
	var img *raster.Image

	BeforeEach(func() {
		img = raster.New()
	})

	It("maps the origin to the image center", func() {
		points := mat.NewDense(1, 2, []float64{0, 0})

		Expect(img.Accumulate(points, 0, 1)).To(Succeed())
		Expect(img.At(0, 128, 128)).To(BeNumerically("~", 256.0, 1e-12))
	})

	It("maps (1,1) onto the last pixel", func() {
		points := mat.NewDense(1, 2, []float64{1, 1})

		Expect(img.Accumulate(points, 0, 1)).To(Succeed())
		Expect(img.At(0, 255, 255)).To(BeNumerically("~", 256.0, 1e-12))
	})

	It("normalizes ink by the total point count", func() {
		a := mat.NewDense(1, 2, []float64{0, 0})
		b := mat.NewDense(1, 2, []float64{-1, -1})

		Expect(img.Accumulate(a, 0, 2)).To(Succeed())
		Expect(img.Accumulate(b, 1, 2)).To(Succeed())
		Expect(img.At(0, 128, 128)).To(BeNumerically("~", 128.0, 1e-12))
		Expect(img.At(1, 0, 0)).To(BeNumerically("~", 128.0, 1e-12))
	})

	It("rejects coordinates outside [-1, 1]", func() {
		points := mat.NewDense(1, 2, []float64{1.2, 0})

		err := img.Accumulate(points, 0, 1)
		Expect(err).To(MatchError(raster.ErrOutOfRange))
	})

	It("rejects an invalid channel", func() {
		points := mat.NewDense(1, 2, nil)

		Expect(img.Accumulate(points, 2, 1)).To(MatchError(raster.ErrChannel))
		Expect(img.Accumulate(points, -1, 1)).To(MatchError(raster.ErrChannel))
	})

	It("rejects a non-positive total", func() {
		points := mat.NewDense(1, 2, nil)

		Expect(img.Accumulate(points, 0, 0)).To(MatchError(raster.ErrNoPoints))
	})

	It("uses only the first two components of wider points", func() {
		points := mat.NewDense(1, 4, []float64{0, 0, 99, -99})

		Expect(img.Accumulate(points, 0, 1)).To(Succeed())
		Expect(img.At(0, 128, 128)).To(BeNumerically(">", 0.0))
	})
})

var _ = Describe("EncodePNG", func() {
	It("writes a valid PNG", func() {
		img := raster.New()
		points := mat.NewDense(2, 2, []float64{0, 0, 0.5, -0.5})
		Expect(img.Accumulate(points, 0, 2)).To(Succeed())

		var buf bytes.Buffer
		Expect(img.EncodePNG(&buf)).To(Succeed())
		Expect(buf.Bytes()[:8]).To(Equal([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}))
	})
})
