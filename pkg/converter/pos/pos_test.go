package pos_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/echolab/echotext/pkg/converter"
	"github.com/echolab/echotext/pkg/converter/pos"
)

var _ = Describe("Tagset", func() {
	It("holds no duplicate tags", func() {
		seen := make(map[string]bool, len(pos.Tagset))
		for _, tag := range pos.Tagset {
			Expect(seen[tag]).To(BeFalse(), "duplicate tag %q", tag)
			seen[tag] = true
		}
	})
})

var _ = Describe("Convert", func() {
	It("produces one one-hot row per tagged token", func() {
		c := pos.New()

		out, err := c.Convert("The quick brown fox jumps over the lazy dog.")
		Expect(err).NotTo(HaveOccurred())

		rows, cols := out.Dims()
		Expect(rows).To(BeNumerically(">=", 9))
		Expect(cols).To(Equal(c.Dim()))

		for i := 0; i < rows; i++ {
			var sum float64
			for j := 0; j < cols; j++ {
				sum += out.At(i, j)
			}
			Expect(sum).To(Equal(1.0))
		}
	})

	It("has a constant width across documents", func() {
		c := pos.New()

		first, err := c.Convert("A short sentence.")
		Expect(err).NotTo(HaveOccurred())
		second, err := c.Convert("Another, rather longer, sentence with more words in it.")
		Expect(err).NotTo(HaveOccurred())

		_, w1 := first.Dims()
		_, w2 := second.Dims()
		Expect(w1).To(Equal(w2))
	})

	It("drops excluded tags", func() {
		plain := pos.New()
		noDet := pos.New(pos.WithExclusions("DT"))

		text := "The cat sat on the mat."
		full, err := plain.Convert(text)
		Expect(err).NotTo(HaveOccurred())
		filtered, err := noDet.Convert(text)
		Expect(err).NotTo(HaveOccurred())

		fullRows, _ := full.Dims()
		filteredRows, _ := filtered.Dims()
		Expect(filteredRows).To(BeNumerically("<", fullRows))
	})

	It("fails when every token is filtered out", func() {
		c := pos.New(pos.WithExclusions(pos.Tagset...))

		_, err := c.Convert("The cat sat.")
		Expect(err).To(MatchError(converter.ErrEmptySequence))
	})
})
