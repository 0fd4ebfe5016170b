// Package profile implements the polymorphic surface-brightness profile
// abstraction at the heart of the rendering engine: primitive profiles
// with closed-form evaluation, algebraic combinators (sum, convolution,
// affine transform), and image-backed profiles that reconstruct a
// continuous, band-limited function from discrete samples.
//
// Every profile is immutable after construction and safe for concurrent
// read-only evaluation. The only internal mutable state is a set of
// compute-once caches (stepK, maxK, transformed grids) which publish
// atomically, so concurrent first access never observes a partial value.
package profile

import (
	"math"
	"sync/atomic"

	"galprof/pkg/geom"
	"galprof/pkg/photon"
)

// Profile is a 2-D surface-brightness distribution evaluable in both
// real space and Fourier space.
//
// ValueReal and ValueK are pure queries, defined everywhere in their
// plane. StepK and MaxK are the profile's sampling parameters: StepK is
// the Fourier-grid spacing fine enough to keep real-space folding below
// the configured FoldingThreshold, MaxK the Fourier radius beyond which
// the profile's amplitude stays below MaxKThreshold of peak. Both are
// strictly positive and finite for any renderable profile.
type Profile interface {
	// ValueReal evaluates the surface brightness at a real-space point.
	ValueReal(p geom.Position) float64

	// ValueK evaluates the Fourier transform at frequency k, with the
	// convention ValueK(0) == Flux().
	ValueK(k geom.Position) complex128

	// StepK returns the adequate Fourier sample spacing.
	StepK() float64

	// MaxK returns the profile's effective band limit.
	MaxK() float64

	// Flux returns the total flux (the integral of ValueReal).
	Flux() float64

	// Centroid returns the flux-weighted first moment of the real-space
	// distribution. Profiles with zero total flux have no centroid and
	// report ErrDegenerateInput.
	Centroid() (geom.Position, error)

	// Shoot draws n photons distributed according to the profile, using
	// ud for every random decision.
	Shoot(n int, ud photon.Deviate) (*photon.Array, error)

	// Params returns the tolerance bundle the profile was built with.
	Params() GSParams
}

// goodFFTSize returns the smallest even grid dimension >= n that the
// transform machinery handles efficiently (a power of two), clamped
// below by minSize.
func goodFFTSize(n, minSize int) int {
	if n < minSize {
		n = minSize
	}
	size := 2
	for size < n {
		size *= 2
	}
	return size
}

// atomicFloat is a lock-free compute-once cell for a cached positive
// float64. Zero means "not yet computed"; every writer derives the same
// value, so racing writers publish identical results.
type atomicFloat struct {
	bits atomic.Uint64
}

func (a *atomicFloat) load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat) store(v float64) {
	a.bits.Store(math.Float64bits(v))
}
