// Package grid provides the dense real-space/Fourier-space grid pair a
// profile is discretized onto, and the forward/inverse transform between
// the two. Both grids are square with the same dimension N (even); the
// spacings obey dk = 2*pi/(N*dx), so transforming back and forth is
// lossless up to floating error.
//
// Grid indices are logical and signed: valid indices run from -N/2 to
// N/2-1 on each axis, with the origin (x = 0 or k = 0) at logical index
// (0, 0). Sample (ix, iy) of an XTable sits at real-space position
// (ix*dx, iy*dx); sample (ik, jk) of a KTable sits at frequency
// (ik*dk, jk*dk).
package grid

import (
	"fmt"
	"math"

	"galprof/pkg/interpolant"
)

// XTable is a real-space sample grid.
type XTable struct {
	n    int
	dx   float64
	vals []float64
}

// KTable is a Fourier-space sample grid.
type KTable struct {
	n    int
	dk   float64
	vals []complex128
}

// NewXTable allocates a zeroed N x N real-space grid with spacing dx.
// N must be even and positive, dx positive.
func NewXTable(n int, dx float64) (*XTable, error) {
	if n <= 0 || n%2 != 0 {
		return nil, fmt.Errorf("grid dimension %d must be positive and even", n)
	}
	if dx <= 0 {
		return nil, fmt.Errorf("grid spacing %v must be positive", dx)
	}
	return &XTable{n: n, dx: dx, vals: make([]float64, n*n)}, nil
}

// NewKTable allocates a zeroed N x N Fourier-space grid with spacing dk.
func NewKTable(n int, dk float64) (*KTable, error) {
	if n <= 0 || n%2 != 0 {
		return nil, fmt.Errorf("grid dimension %d must be positive and even", n)
	}
	if dk <= 0 {
		return nil, fmt.Errorf("grid spacing %v must be positive", dk)
	}
	return &KTable{n: n, dk: dk, vals: make([]complex128, n*n)}, nil
}

// N returns the grid dimension.
func (t *XTable) N() int { return t.n }

// Dx returns the real-space sample spacing.
func (t *XTable) Dx() float64 { return t.dx }

func (t *XTable) index(ix, iy int) int {
	return (iy+t.n/2)*t.n + (ix + t.n/2)
}

func (t *XTable) inRange(i int) bool { return i >= -t.n/2 && i < t.n/2 }

// At returns the sample at logical index (ix, iy); out-of-grid reads are 0.
func (t *XTable) At(ix, iy int) float64 {
	if !t.inRange(ix) || !t.inRange(iy) {
		return 0
	}
	return t.vals[t.index(ix, iy)]
}

// Set overwrites the sample at logical index (ix, iy).
func (t *XTable) Set(ix, iy int, v float64) {
	if t.inRange(ix) && t.inRange(iy) {
		t.vals[t.index(ix, iy)] = v
	}
}

// N returns the grid dimension.
func (t *KTable) N() int { return t.n }

// Dk returns the Fourier-space sample spacing.
func (t *KTable) Dk() float64 { return t.dk }

// MaxK returns the largest frequency magnitude the grid covers per axis.
func (t *KTable) MaxK() float64 { return float64(t.n/2) * t.dk }

func (t *KTable) index(ik, jk int) int {
	return (jk+t.n/2)*t.n + (ik + t.n/2)
}

func (t *KTable) inRange(i int) bool { return i >= -t.n/2 && i < t.n/2 }

// At returns the sample at logical index (ik, jk); out-of-grid reads are 0.
func (t *KTable) At(ik, jk int) complex128 {
	if !t.inRange(ik) || !t.inRange(jk) {
		return 0
	}
	return t.vals[t.index(ik, jk)]
}

// Set overwrites the sample at logical index (ik, jk).
func (t *KTable) Set(ik, jk int, v complex128) {
	if t.inRange(ik) && t.inRange(jk) {
		t.vals[t.index(ik, jk)] = v
	}
}

// Interpolate reconstructs the table's continuous function at real-space
// position (x, y) using the kernel's tensor-product footprint. Samples
// outside the grid are treated as zero.
func (t *XTable) Interpolate(x, y float64, kern interpolant.Interpolant) float64 {
	gx := x / t.dx
	gy := y / t.dx
	r := kern.XRange()
	ix0 := int(math.Ceil(gx - r))
	ix1 := int(math.Floor(gx + r))
	iy0 := int(math.Ceil(gy - r))
	iy1 := int(math.Floor(gy + r))
	var sum float64
	for iy := iy0; iy <= iy1; iy++ {
		wy := kern.XVal(gy - float64(iy))
		if wy == 0 {
			continue
		}
		for ix := ix0; ix <= ix1; ix++ {
			wx := kern.XVal(gx - float64(ix))
			if wx == 0 {
				continue
			}
			sum += wx * wy * t.At(ix, iy)
		}
	}
	return sum
}

// InterpolateWrapped reconstructs the periodic extension of the grid at
// frequency (kx, ky). The transform of integer-positioned samples repeats
// with period N*dk per axis, so coordinates reduce modulo the period and
// kernel footprint samples wrap around the zone edges instead of reading
// zeros.
func (t *KTable) InterpolateWrapped(kx, ky float64, kern interpolant.Interpolant) complex128 {
	n := float64(t.n)
	gx := kx / t.dk
	gy := ky / t.dk
	gx -= n * math.Floor((gx+n/2)/n)
	gy -= n * math.Floor((gy+n/2)/n)
	r := kern.XRange()
	ix0 := int(math.Ceil(gx - r))
	ix1 := int(math.Floor(gx + r))
	iy0 := int(math.Ceil(gy - r))
	iy1 := int(math.Floor(gy + r))
	var sum complex128
	for iy := iy0; iy <= iy1; iy++ {
		wy := kern.XVal(gy - float64(iy))
		if wy == 0 {
			continue
		}
		for ix := ix0; ix <= ix1; ix++ {
			wx := kern.XVal(gx - float64(ix))
			if wx == 0 {
				continue
			}
			sum += complex(wx*wy, 0) * t.At(t.wrap(ix), t.wrap(iy))
		}
	}
	return sum
}

func (t *KTable) wrap(i int) int {
	half := t.n / 2
	for i < -half {
		i += t.n
	}
	for i >= half {
		i -= t.n
	}
	return i
}

// Interpolate reconstructs the continuous transform at frequency (kx, ky)
// using the kernel's tensor-product footprint in grid units.
func (t *KTable) Interpolate(kx, ky float64, kern interpolant.Interpolant) complex128 {
	gx := kx / t.dk
	gy := ky / t.dk
	r := kern.XRange()
	ix0 := int(math.Ceil(gx - r))
	ix1 := int(math.Floor(gx + r))
	iy0 := int(math.Ceil(gy - r))
	iy1 := int(math.Floor(gy + r))
	var sum complex128
	for iy := iy0; iy <= iy1; iy++ {
		wy := kern.XVal(gy - float64(iy))
		if wy == 0 {
			continue
		}
		for ix := ix0; ix <= ix1; ix++ {
			wx := kern.XVal(gx - float64(ix))
			if wx == 0 {
				continue
			}
			sum += complex(wx*wy, 0) * t.At(ix, iy)
		}
	}
	return sum
}

// Transform computes the forward transform
//
//	F(k) = dx^2 * sum_x f(x) exp(-i k.x)
//
// onto a KTable with dk = 2*pi/(N*dx). The centered origins on both sides
// are handled by checkerboard phase flips around an unshifted FFT; in two
// dimensions the residual global phases cancel for any even N.
func (t *XTable) Transform() *KTable {
	n := t.n
	work := make([]complex128, n*n)
	for i, v := range t.vals {
		ix := i % n
		iy := i / n
		if (ix+iy)%2 == 1 {
			v = -v
		}
		work[i] = complex(v, 0)
	}
	fft2D(work, n, false)
	scale := t.dx * t.dx
	out := &KTable{n: n, dk: 2 * math.Pi / (float64(n) * t.dx), vals: work}
	for i := range out.vals {
		ix := i % n
		iy := i / n
		s := scale
		if (ix+iy)%2 == 1 {
			s = -s
		}
		out.vals[i] *= complex(s, 0)
	}
	return out
}

// InverseTransform computes the inverse transform
//
//	f(x) = (1/(2*pi)^2) * dk^2 * sum_k F(k) exp(+i k.x)
//
// onto an XTable with dx = 2*pi/(N*dk), discarding any residual imaginary
// part (exact for transforms of real inputs).
func (t *KTable) InverseTransform() *XTable {
	n := t.n
	work := make([]complex128, n*n)
	for i, v := range t.vals {
		ix := i % n
		iy := i / n
		if (ix+iy)%2 == 1 {
			v = -v
		}
		work[i] = v
	}
	fft2D(work, n, true)
	dx := 2 * math.Pi / (float64(n) * t.dk)
	scale := t.dk * t.dk / (4 * math.Pi * math.Pi)
	out := &XTable{n: n, dx: dx, vals: make([]float64, n*n)}
	for i, v := range work {
		ix := i % n
		iy := i / n
		s := scale
		if (ix+iy)%2 == 1 {
			s = -s
		}
		out.vals[i] = real(v) * s
	}
	return out
}
