// Package raster accumulates 2-D projected points (e.g. the first two
// principal components of reservoir states) into a fixed-size two-channel
// intensity image for visual cluster inspection.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"gonum.org/v1/gonum/mat"
)

// Side is the fixed width and height of the projection image.
const Side = 256

// Channels is the number of point sets one image can hold.
const Channels = 2

var (
	// ErrOutOfRange is returned when a point coordinate falls outside
	// [-1, 1]. Callers must normalize projections before accumulating.
	ErrOutOfRange = errors.New("point coordinate outside [-1, 1]")

	// ErrChannel is returned for a channel index outside [0, Channels).
	ErrChannel = errors.New("invalid channel index")

	// ErrNoPoints is returned when the total point count is not positive.
	ErrNoPoints = errors.New("total point count must be positive")
)

// Image is a Side x Side accumulator with one intensity channel per point
// set. Every accumulated point adds Side/total ink so the total ink is
// constant regardless of set sizes.
type Image struct {
	cells [Channels][Side][Side]float64
}

// New returns an empty projection image.
func New() *Image {
	return &Image{}
}

// Accumulate adds every row of points into the given channel. Only the first
// two columns of points are used; both must lie in [-1, 1]. total is the
// combined point count across all sets being drawn into this image.
func (img *Image) Accumulate(points mat.Matrix, channel, total int) error {
	if channel < 0 || channel >= Channels {
		return fmt.Errorf("%w: %d", ErrChannel, channel)
	}
	if total <= 0 {
		return ErrNoPoints
	}

	rows, cols := points.Dims()
	if cols < 2 {
		return fmt.Errorf("points need at least 2 components, got %d", cols)
	}

	ink := float64(Side) / float64(total)
	for i := 0; i < rows; i++ {
		r, err := pixel(points.At(i, 0))
		if err != nil {
			return err
		}
		c, err := pixel(points.At(i, 1))
		if err != nil {
			return err
		}
		img.cells[channel][r][c] += ink
	}

	return nil
}

// pixel maps a coordinate from [-1, 1] to [0, Side). floor((v+1)*128) maps
// +1.0 to Side, which is clamped back onto the last pixel.
func pixel(v float64) (int, error) {
	if v < -1 || v > 1 {
		return 0, fmt.Errorf("%w: %g", ErrOutOfRange, v)
	}
	p := int((v + 1) * (Side / 2))
	if p >= Side {
		p = Side - 1
	}
	return p, nil
}

// At returns the accumulated intensity of one cell.
func (img *Image) At(channel, row, col int) float64 {
	return img.cells[channel][row][col]
}

// EncodePNG writes the accumulated image as a PNG, channel 0 on green and
// channel 1 on blue, intensities clipped at full brightness.
func (img *Image) EncodePNG(w io.Writer) error {
	out := image.NewNRGBA(image.Rect(0, 0, Side, Side))
	for r := 0; r < Side; r++ {
		for c := 0; c < Side; c++ {
			out.SetNRGBA(c, r, color.NRGBA{
				G: clip(img.cells[0][r][c]),
				B: clip(img.cells[1][r][c]),
				A: 0xff,
			})
		}
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("encoding projection image: %w", err)
	}
	return nil
}

func clip(v float64) uint8 {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(v)
}
