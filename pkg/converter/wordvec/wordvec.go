// Package wordvec converts text to dense word-vector sequences using
// pre-trained embeddings in the word2vec text format, loaded through
// github.com/ynqa/wego. Embedding training is out of scope; this package
// only consumes a vector file produced elsewhere.
package wordvec

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/ynqa/wego/pkg/embedding"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/converter"
)

var wordPattern = regexp.MustCompile(`[\p{L}]+`)

// Converter maps words to their pre-trained dense vectors. Words without a
// vector and excluded words are dropped.
type Converter struct {
	dim     int
	vectors map[string][]float64
	exclude map[string]struct{}
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

// Load reads a word2vec-format vector file from r.
func Load(r io.Reader, opts ...Option) (*Converter, error) {
	embs, err := embedding.Load(r)
	if err != nil {
		return nil, fmt.Errorf("loading word vectors: %w", err)
	}

	c := &Converter{
		vectors: make(map[string][]float64, len(embs)),
		exclude: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, e := range embs {
		if c.dim == 0 {
			c.dim = len(e.Vector)
		}
		if len(e.Vector) != c.dim {
			return nil, fmt.Errorf("%w: vector for %q has width %d, want %d",
				converter.ErrConfig, e.Word, len(e.Vector), c.dim)
		}
		c.vectors[strings.ToLower(e.Word)] = e.Vector
	}

	if c.dim == 0 {
		return nil, fmt.Errorf("%w: vector file holds no embeddings", converter.ErrConfig)
	}
	return c, nil
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, opts ...Option) (*Converter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vector file: %w", err)
	}
	defer f.Close()

	return Load(f, opts...)
}

// Dim returns the width of the loaded vectors.
func (c *Converter) Dim() int { return c.dim }

// Convert returns one dense row per known word, in document order.
func (c *Converter) Convert(text string) (*mat.Dense, error) {
	var rows [][]float64
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if _, skip := c.exclude[word]; skip {
			continue
		}
		vec, ok := c.vectors[word]
		if !ok {
			continue
		}
		rows = append(rows, vec)
	}

	if len(rows) == 0 {
		return nil, converter.ErrEmptySequence
	}

	out := mat.NewDense(len(rows), c.dim, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out, nil
}
