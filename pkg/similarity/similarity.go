// Package similarity ranks document embeddings by Euclidean distance.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrTooFewDocuments is returned when the embedding matrix holds fewer
	// than two documents, so there is nothing to rank against.
	ErrTooFewDocuments = errors.New("embedding matrix needs at least 2 documents")

	// ErrIndexOutOfRange is returned for a query index outside the matrix.
	ErrIndexOutOfRange = errors.New("document index out of range")
)

// Match is one ranked neighbor of a query document.
type Match struct {
	// Index is the column index of the neighbor in the embedding matrix.
	Index int

	// Distance is the Euclidean distance to the query document.
	Distance float64
}

// Rank computes the Euclidean distance from document column index to every
// other column of embeddings (one column per document) and returns all of
// them sorted ascending by distance. Ties keep encounter order.
func Rank(embeddings mat.Matrix, index int) ([]Match, error) {
	if embeddings == nil {
		return nil, ErrTooFewDocuments
	}

	dims, docs := embeddings.Dims()
	if docs < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewDocuments, docs)
	}
	if index < 0 || index >= docs {
		return nil, fmt.Errorf("%w: %d with %d documents", ErrIndexOutOfRange, index, docs)
	}

	matches := make([]Match, 0, docs-1)
	for j := 0; j < docs; j++ {
		if j == index {
			continue
		}
		matches = append(matches, Match{Index: j, Distance: distance(embeddings, dims, index, j)})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})

	return matches, nil
}

// distance is the Euclidean distance between columns i and j.
func distance(m mat.Matrix, dims, i, j int) float64 {
	var sum float64
	for d := 0; d < dims; d++ {
		diff := m.At(d, i) - m.At(d, j)
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
