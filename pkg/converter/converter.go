// Package converter maps raw text documents to ordered sequences of
// fixed-width numeric vectors, one vector per retained token. Each
// implementation fixes its vector width at construction so every document in
// an experiment produces rows of the same width.
package converter

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptySequence is returned when a document yields no vectors after
	// filtering, e.g. every token was excluded. Downstream aggregation
	// cannot handle empty input, so this surfaces as a hard failure.
	ErrEmptySequence = errors.New("document produced no vectors after filtering")

	// ErrConfig is returned for invalid converter configuration.
	ErrConfig = errors.New("invalid converter configuration")
)

// Converter converts one document to its temporal vector representation.
type Converter interface {
	// Convert returns one row per retained token, in document order.
	Convert(text string) (*mat.Dense, error)

	// Dim is the constant vector width for this experiment.
	Dim() int
}
