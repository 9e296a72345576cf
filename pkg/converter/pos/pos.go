// Package pos converts text to one-hot part-of-speech tag vectors. Tagging
// itself is delegated to github.com/jdkato/prose; this package owns the tag
// inventory and the vector encoding.
package pos

import (
	"fmt"

	"github.com/jdkato/prose/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/echolab/echotext/pkg/converter"
)

// Tagset is the Penn Treebank tag inventory this converter encodes, as an
// explicit versioned table rather than something inferred from the tagging
// library at runtime. The one-hot slot of a tag is its index here.
var Tagset = []string{
	"''", ",", ":", ".", "``", "-LRB-", "-RRB-",
	"AFX", "CC", "CD", "DT", "EX", "FW", "IN",
	"JJ", "JJR", "JJS", "LS", "MD",
	"NN", "NNS", "NNP", "NNPS",
	"PDT", "POS", "PRP", "PRP$",
	"RB", "RBR", "RBS", "RP", "SYM", "TO", "UH",
	"VB", "VBZ", "VBP", "VBD", "VBN", "VBG",
	"WDT", "WP", "WP$", "WRB",
}

// Converter encodes tagged tokens as one-hot vectors over Tagset. Tokens
// whose tag is not in the inventory or is excluded are dropped.
type Converter struct {
	index   map[string]int
	exclude map[string]struct{}
}

var _ converter.Converter = (*Converter)(nil)

// Option configures a Converter.
type Option func(*Converter)

// WithExclusions drops tokens carrying any of the given tags.
func WithExclusions(tags ...string) Option {
	return func(c *Converter) {
		for _, t := range tags {
			c.exclude[t] = struct{}{}
		}
	}
}

// New creates a POS one-hot converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		index:   make(map[string]int, len(Tagset)),
		exclude: make(map[string]struct{}),
	}
	for i, tag := range Tagset {
		c.index[tag] = i
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dim returns the width of every output vector, the tag inventory size.
func (c *Converter) Dim() int { return len(Tagset) }

// Convert tags the document and returns one one-hot row per retained token,
// in document order. Tagger failures propagate unchanged.
func (c *Converter) Convert(text string) (*mat.Dense, error) {
	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil, fmt.Errorf("tagging document: %w", err)
	}

	var slots []int
	for _, tok := range doc.Tokens() {
		if _, skip := c.exclude[tok.Tag]; skip {
			continue
		}
		slot, ok := c.index[tok.Tag]
		if !ok {
			continue
		}
		slots = append(slots, slot)
	}

	if len(slots) == 0 {
		return nil, converter.ErrEmptySequence
	}

	out := mat.NewDense(len(slots), len(Tagset), nil)
	for i, slot := range slots {
		out.Set(i, slot, 1)
	}
	return out, nil
}
