// Package image provides the dense 2-D sample grid the profile engine
// reads from and renders into. An Image couples a flat sample buffer with
// the integer Bounds describing its pixel index range and a scalar
// real-world pixel scale.
//
// The engine never copies sample data: an Image built from a caller's
// slice shares that slice for the Image's whole lifetime, and every
// profile built on the Image keeps the same hold. Callers must not mutate
// the buffer while any profile still references it, or must pass an
// explicit copy at construction.
package image

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"galprof/pkg/geom"
)

// Image is a dense 2-D grid of float64 samples over an integer Bounds.
// Samples are stored row-major, row y = bounds.YMin first.
type Image struct {
	data   []float64
	bounds geom.Bounds
	scale  float64
}

// New allocates a zeroed Image covering bounds with the given pixel scale.
func New(bounds geom.Bounds, scale float64) (*Image, error) {
	if !bounds.IsDefined() {
		return nil, fmt.Errorf("image over undefined bounds")
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("image pixel scale %v is not positive and finite", scale)
	}
	return &Image{
		data:   make([]float64, bounds.Area()),
		bounds: bounds,
		scale:  scale,
	}, nil
}

// FromSlice wraps a caller-owned sample buffer without copying. The buffer
// length must equal bounds.Area(); the caller keeps ownership but must not
// write to it while the Image (or any profile built on it) is alive.
func FromSlice(data []float64, bounds geom.Bounds, scale float64) (*Image, error) {
	if !bounds.IsDefined() {
		return nil, fmt.Errorf("image over undefined bounds")
	}
	if len(data) != bounds.Area() {
		return nil, fmt.Errorf("buffer length %d does not match bounds area %d",
			len(data), bounds.Area())
	}
	if scale <= 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, fmt.Errorf("image pixel scale %v is not positive and finite", scale)
	}
	return &Image{data: data, bounds: bounds, scale: scale}, nil
}

// Bounds returns the pixel index range of the image.
func (im *Image) Bounds() geom.Bounds { return im.bounds }

// Scale returns the real-world size of one pixel.
func (im *Image) Scale() float64 { return im.scale }

func (im *Image) index(x, y int) int {
	return (y-im.bounds.YMin)*im.bounds.Width() + (x - im.bounds.XMin)
}

// At returns the sample at integer pixel coordinate (x, y). Coordinates
// outside the bounds read as zero.
func (im *Image) At(x, y int) float64 {
	if !im.bounds.Includes(x, y) {
		return 0
	}
	return im.data[im.index(x, y)]
}

// Set overwrites the sample at (x, y). Out-of-bounds writes are dropped.
func (im *Image) Set(x, y int, v float64) {
	if im.bounds.Includes(x, y) {
		im.data[im.index(x, y)] = v
	}
}

// AddAt accumulates v into the sample at (x, y). Out-of-bounds flux is
// dropped, matching what a physical detector does off its edge.
func (im *Image) AddAt(x, y int, v float64) {
	if im.bounds.Includes(x, y) {
		im.data[im.index(x, y)] += v
	}
}

// Sum returns the sum of all samples (the image's total flux in per-pixel
// units; multiply by Scale()^2 for physical flux of a surface-brightness
// sampling).
func (im *Image) Sum() float64 {
	return floats.Sum(im.data)
}

// Centroid returns the flux-weighted first moment of the image in pixel
// index coordinates. The moment is taken over the signed samples, so a
// net-negative or net-zero image has no usable centroid and the zero-sum
// case is reported by the caller through Sum().
func (im *Image) Centroid() geom.Position {
	var sx, sy float64
	w := im.bounds.Width()
	for i, v := range im.data {
		x := im.bounds.XMin + i%w
		y := im.bounds.YMin + i/w
		sx += v * float64(x)
		sy += v * float64(y)
	}
	total := floats.Sum(im.data)
	if total == 0 {
		return im.bounds.Center()
	}
	return geom.Position{X: sx / total, Y: sy / total}
}
