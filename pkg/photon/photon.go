// Package photon provides the flat (position, flux) sample list used for
// Monte Carlo rendering of surface-brightness profiles, and the
// shuffle-convolution that folds two independently shot photon sets into
// the photon set of their convolution.
package photon

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Shuffle-convolution errors.
var (
	// ErrMismatchedLength reports a zero-length operand where photons are
	// required; an empty photon set cannot represent a convolution factor.
	ErrMismatchedLength = errors.New("photon: zero-length photon array")

	// ErrZeroFlux reports operands whose paired fluxes sum to exactly
	// zero, leaving no total to normalize against.
	ErrZeroFlux = errors.New("photon: paired fluxes sum to zero")
)

// Deviate is an opaque source of uniform draws on [0, 1). Exactly one
// draw is consumed per random decision. *math/rand.Rand satisfies it.
type Deviate interface {
	Float64() float64
}

// Array is an ordered list of photons. Length is fixed at construction;
// photons are only ever overwritten in place.
type Array struct {
	x    []float64
	y    []float64
	flux []float64
}

// NewArray allocates an array of n zero photons.
func NewArray(n int) *Array {
	return &Array{
		x:    make([]float64, n),
		y:    make([]float64, n),
		flux: make([]float64, n),
	}
}

// Len returns the number of photons.
func (a *Array) Len() int { return len(a.flux) }

// Set overwrites photon i.
func (a *Array) Set(i int, x, y, flux float64) {
	a.x[i] = x
	a.y[i] = y
	a.flux[i] = flux
}

// At returns photon i.
func (a *Array) At(i int) (x, y, flux float64) {
	return a.x[i], a.y[i], a.flux[i]
}

// TotalFlux returns the signed sum of all photon fluxes.
func (a *Array) TotalFlux() float64 {
	return floats.Sum(a.flux)
}

// Translate shifts every photon position by (dx, dy).
func (a *Array) Translate(dx, dy float64) {
	for i := range a.x {
		a.x[i] += dx
		a.y[i] += dy
	}
}

// ScaleFlux multiplies every photon flux by s.
func (a *Array) ScaleFlux(s float64) {
	floats.Scale(s, a.flux)
}

// ConvolveShuffle combines a with b into the photon representation of
// their convolution: positions add pairwise, fluxes multiply pairwise,
// and the result is renormalized so its total flux equals the product of
// the operands' total fluxes. The pairing permutation is drawn from ud,
// one draw per pairing decision (Fisher-Yates over the longer operand,
// restarted per block of the shorter), so each photon of the shorter
// operand is used at most once per output photon and at most
// ceil(max/min) times overall. The output length is the longer of the two
// input lengths.
func (a *Array) ConvolveShuffle(b *Array, ud Deviate) (*Array, error) {
	if a.Len() == 0 || b.Len() == 0 {
		return nil, fmt.Errorf("convolve %d x %d photons: %w", a.Len(), b.Len(), ErrMismatchedLength)
	}
	long, short := a, b
	if b.Len() > a.Len() {
		long, short = b, a
	}
	n := long.Len()
	m := short.Len()

	// Pair long photon i with short photon perm[i mod m], re-shuffling the
	// short indices at the start of every block of m outputs.
	out := NewArray(n)
	perm := make([]int, m)
	for i := 0; i < n; i++ {
		r := i % m
		if r == 0 {
			for j := range perm {
				perm[j] = j
			}
			for j := m - 1; j > 0; j-- {
				k := int(ud.Float64() * float64(j+1))
				if k > j {
					k = j
				}
				perm[j], perm[k] = perm[k], perm[j]
			}
		}
		lx, ly, lf := long.At(i)
		sx, sy, sf := short.At(perm[r])
		out.Set(i, lx+sx, ly+sy, lf*sf)
	}

	raw := out.TotalFlux()
	if raw == 0 {
		return nil, fmt.Errorf("convolve %d x %d photons: %w", a.Len(), b.Len(), ErrZeroFlux)
	}
	out.ScaleFlux(a.TotalFlux() * b.TotalFlux() / raw)
	return out, nil
}
