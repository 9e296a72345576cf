package similarity_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/similarity"
)

var _ = Describe("Rank", func() {
	It("ranks all other documents ascending by Euclidean distance", func() {
		// Columns: A=(0,0), B=(1,0), C=(3,4).
		embeddings := mat.NewDense(2, 3, []float64{
			0, 1, 3,
			0, 0, 4,
		})

		matches, err := similarity.Rank(embeddings, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(2))
		Expect(matches[0].Index).To(Equal(1))
		Expect(matches[0].Distance).To(BeNumerically("~", 1.0, 1e-12))
		Expect(matches[1].Index).To(Equal(2))
		Expect(matches[1].Distance).To(BeNumerically("~", 5.0, 1e-12))
	})

	It("keeps encounter order on distance ties", func() {
		// B and C are both at distance 1 from A; B comes first by index.
		embeddings := mat.NewDense(2, 3, []float64{
			0, 1, -1,
			0, 0, 0,
		})

		matches, err := similarity.Rank(embeddings, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches[0].Index).To(Equal(1))
		Expect(matches[1].Index).To(Equal(2))
	})

	It("fails with fewer than two documents", func() {
		single := mat.NewDense(2, 1, []float64{1, 2})

		_, err := similarity.Rank(single, 0)
		Expect(err).To(MatchError(similarity.ErrTooFewDocuments))
	})

	It("fails on an out-of-range query index", func() {
		embeddings := mat.NewDense(2, 2, nil)

		_, err := similarity.Rank(embeddings, 2)
		Expect(err).To(MatchError(similarity.ErrIndexOutOfRange))

		_, err = similarity.Rank(embeddings, -1)
		Expect(err).To(MatchError(similarity.ErrIndexOutOfRange))
	})
})
