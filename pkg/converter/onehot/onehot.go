// Package onehot converts text to one-hot word vectors over a fixed-size
// vocabulary. Vocabulary fitting is delegated to james-bowman/nlp's count
// vectoriser; the most frequent terms across the training corpus claim the
// vocabulary slots.
package onehot

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/converter"
)

// wordPattern matches the tokens the count vectoriser extracts, so Convert
// and Fit agree on what a word is.
var wordPattern = regexp.MustCompile(`[\p{L}]+`)

// Converter encodes words as one-hot vectors over a fitted vocabulary.
// Out-of-vocabulary and excluded words are dropped.
type Converter struct {
	vocSize int
	exclude map[string]struct{}
	index   map[string]int
}

var _ converter.Converter = (*Converter)(nil)

// Option configures a Converter.
type Option func(*Converter)

// WithExclusions drops the given words (case-insensitive).
func WithExclusions(words ...string) Option {
	return func(c *Converter) {
		for _, w := range words {
			c.exclude[strings.ToLower(w)] = struct{}{}
		}
	}
}

// New creates a one-hot word converter with the given vocabulary size. The
// converter is unusable until Fit has been called on a training corpus.
func New(vocSize int, opts ...Option) (*Converter, error) {
	if vocSize <= 0 {
		return nil, fmt.Errorf("%w: vocabulary size must be positive, got %d", converter.ErrConfig, vocSize)
	}

	c := &Converter{
		vocSize: vocSize,
		exclude: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fit builds the vocabulary from the training documents: the vocSize most
// frequent terms, by total corpus count, with ties broken alphabetically for
// reproducibility.
func (c *Converter) Fit(docs ...string) error {
	if len(docs) == 0 {
		return fmt.Errorf("%w: no documents to fit vocabulary on", converter.ErrConfig)
	}

	stops := make([]string, 0, len(c.exclude))
	for w := range c.exclude {
		stops = append(stops, w)
	}

	vectoriser := nlp.NewCountVectoriser(stops...)
	termDoc, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return fmt.Errorf("fitting vocabulary: %w", err)
	}

	type termCount struct {
		term  string
		count float64
	}

	_, nDocs := termDoc.Dims()
	counts := make([]termCount, 0, len(vectoriser.Vocabulary))
	for term, row := range vectoriser.Vocabulary {
		var total float64
		for d := 0; d < nDocs; d++ {
			total += termDoc.At(row, d)
		}
		counts = append(counts, termCount{term: term, count: total})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].term < counts[j].term
	})

	size := c.vocSize
	if size > len(counts) {
		size = len(counts)
	}

	index := make(map[string]int, size)
	for i := 0; i < size; i++ {
		index[counts[i].term] = i
	}
	c.index = index
	return nil
}

// Dim returns the configured vocabulary size, the width of every vector.
func (c *Converter) Dim() int { return c.vocSize }

// Convert returns one one-hot row per in-vocabulary word, in document order.
func (c *Converter) Convert(text string) (*mat.Dense, error) {
	if c.index == nil {
		return nil, fmt.Errorf("%w: vocabulary has not been fitted", converter.ErrConfig)
	}

	var slots []int
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := c.exclude[word]; skip {
			continue
		}
		slot, ok := c.index[word]
		if !ok {
			continue
		}
		slots = append(slots, slot)
	}

	if len(slots) == 0 {
		return nil, converter.ErrEmptySequence
	}

	out := mat.NewDense(len(slots), c.vocSize, nil)
	for i, slot := range slots {
		out.Set(i, slot, 1)
	}
	return out, nil
}
