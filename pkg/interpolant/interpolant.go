// Package interpolant provides the 1-D interpolation kernels used to
// reconstruct continuous profiles from discrete samples, in both real
// space and Fourier space.
//
// Conventions: XVal takes an offset from a grid node in units of the grid
// spacing. UVal takes a frequency in cycles per grid spacing, so UVal(0)
// is always 1 for a unit-flux kernel and the grid's Nyquist frequency sits
// at u = 0.5. Kernels are immutable after construction and safe for
// concurrent use; kernels without a closed-form transform build a lookup
// table once, on first UVal call.
package interpolant

import (
	"math"
	"sync"
)

// Interpolant is a 1-D convolution/interpolation kernel. A 2-D
// interpolation is the tensor product of the same kernel per axis.
type Interpolant interface {
	// XVal returns the kernel weight at real-space offset x (grid units).
	XVal(x float64) float64

	// UVal returns the kernel's Fourier transform at frequency u
	// (cycles per grid spacing).
	UVal(u float64) float64

	// XRange returns the kernel's support radius: XVal is exactly zero
	// for |x| > XRange. Infinite-support kernels report the cutoff they
	// are windowed at.
	XRange() float64

	// URange returns the frequency beyond which |UVal| stays below tol,
	// used to bound aliased power without a full transform.
	URange(tol float64) float64
}

// sinc returns sin(pi x)/(pi x), continuous through x = 0.
func sinc(x float64) float64 {
	if math.Abs(x) < 1e-4 {
		px := math.Pi * x
		return 1 - px*px/6
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// Nearest is nearest-neighbor (boxcar) interpolation: each sample owns
// its whole pixel. Its transform is a single sinc.
type Nearest struct{}

func (Nearest) XVal(x float64) float64 {
	if math.Abs(x) > 0.5 {
		return 0
	}
	if math.Abs(x) == 0.5 {
		return 0.5
	}
	return 1
}

func (Nearest) UVal(u float64) float64 { return sinc(u) }

func (Nearest) XRange() float64 { return 0.5 }

// URange uses the |sinc(u)| <= 1/(pi u) envelope.
func (Nearest) URange(tol float64) float64 {
	return 1 / (math.Pi * tol)
}

// Linear is bilinear (tent) interpolation. Its transform is sinc squared.
type Linear struct{}

func (Linear) XVal(x float64) float64 {
	x = math.Abs(x)
	if x >= 1 {
		return 0
	}
	return 1 - x
}

func (Linear) UVal(u float64) float64 {
	s := sinc(u)
	return s * s
}

func (Linear) XRange() float64 { return 1 }

func (Linear) URange(tol float64) float64 {
	return 1 / (math.Pi * math.Sqrt(tol))
}

// Cubic is the 4-point cubic convolution kernel (Catmull-Rom, a = -1/2).
// Its transform has the closed form sinc^3(u) * (3 sinc(u) - 2 cos(pi u)).
type Cubic struct{}

func (Cubic) XVal(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return 1 + x*x*(-2.5+1.5*x)
	case x < 2:
		return -0.5 * (x - 1) * (2 - x) * (2 - x)
	default:
		return 0
	}
}

func (Cubic) UVal(u float64) float64 {
	s := sinc(u)
	c := math.Cos(math.Pi * u)
	return s * s * s * (3*s - 2*c)
}

func (Cubic) XRange() float64 { return 2 }

// URange uses the |UVal| <= 5/(pi u)^3 envelope.
func (Cubic) URange(tol float64) float64 {
	return math.Cbrt(5/tol) / math.Pi
}

// Quintic is a 6-point piecewise-quintic kernel: C2 continuous,
// interpolating, and exact for polynomials through degree four. It is the
// default real-space kernel for image-backed profiles.
type Quintic struct {
	lut uTable
}

func (q *Quintic) XVal(x float64) float64 {
	x = math.Abs(x)
	switch {
	case x < 1:
		return 1 + x*x*(-1.25+x*(-35.0/12+x*(5.25+x*(-25.0/12))))
	case x < 2:
		return -4 + x*(18.75+x*(-30.625+x*(545.0/24+x*(-7.875+x*(25.0/24)))))
	case x < 3:
		return 18 + x*(-38.25+x*(31.875+x*(-313.0/24+x*(2.625+x*(-5.0/24)))))
	default:
		return 0
	}
}

func (q *Quintic) UVal(u float64) float64 { return q.lut.uVal(q, u) }

func (q *Quintic) XRange() float64 { return 3 }

func (q *Quintic) URange(tol float64) float64 { return uRangeScan(q, tol) }

// Lanczos is the n-lobed windowed-sinc kernel sinc(x) sinc(x/n),
// supported on |x| < n.
type Lanczos struct {
	N   int
	lut uTable
}

// NewLanczos creates an n-lobed Lanczos kernel. n must be at least 1.
func NewLanczos(n int) *Lanczos {
	if n < 1 {
		n = 1
	}
	return &Lanczos{N: n}
}

func (l *Lanczos) XVal(x float64) float64 {
	x = math.Abs(x)
	n := float64(l.N)
	if x >= n {
		return 0
	}
	return sinc(x) * sinc(x/n)
}

func (l *Lanczos) UVal(u float64) float64 { return l.lut.uVal(l, u) }

func (l *Lanczos) XRange() float64 { return float64(l.N) }

func (l *Lanczos) URange(tol float64) float64 { return uRangeScan(l, tol) }

// Sinc is the ideal band-limiting kernel, truncated at a configured
// cutoff radius since its true support is infinite.
type Sinc struct {
	Cutoff float64
	lut    uTable
}

// NewSinc creates a sinc kernel windowed at the given cutoff radius
// (grid units). Cutoffs below 1 are clamped to 1.
func NewSinc(cutoff float64) *Sinc {
	if cutoff < 1 {
		cutoff = 1
	}
	return &Sinc{Cutoff: cutoff}
}

func (s *Sinc) XVal(x float64) float64 {
	if math.Abs(x) > s.Cutoff {
		return 0
	}
	return sinc(x)
}

func (s *Sinc) UVal(u float64) float64 { return s.lut.uVal(s, u) }

func (s *Sinc) XRange() float64 { return s.Cutoff }

func (s *Sinc) URange(tol float64) float64 {
	// The untruncated transform is a unit boxcar on |u| <= 0.5;
	// truncation ringing decays too slowly to push this much past Nyquist.
	r := uRangeScan(s, tol)
	if r < 0.5 {
		r = 0.5
	}
	return r
}

// uTable is a compute-once lookup table for kernels whose transform has
// no closed form. The table is built by Simpson quadrature of XVal on
// first use and published through sync.Once, so concurrent readers never
// observe a partial table.
type uTable struct {
	once sync.Once
	du   float64
	vals []float64
}

const (
	uTableMax     = 10.0 // cycles per sample covered by the table
	uTableSamples = 2048
	simpsonPanels = 1024 // even
)

func (t *uTable) build(k Interpolant) {
	t.du = uTableMax / float64(uTableSamples-1)
	t.vals = make([]float64, uTableSamples)
	r := k.XRange()
	for i := range t.vals {
		u := float64(i) * t.du
		t.vals[i] = 2 * simpson(func(x float64) float64 {
			return k.XVal(x) * math.Cos(2*math.Pi*u*x)
		}, 0, r, simpsonPanels)
	}
}

func (t *uTable) uVal(k Interpolant, u float64) float64 {
	t.once.Do(func() { t.build(k) })
	u = math.Abs(u)
	if u >= uTableMax {
		return 0
	}
	f := u / t.du
	i := int(f)
	if i >= len(t.vals)-1 {
		return t.vals[len(t.vals)-1]
	}
	frac := f - float64(i)
	return t.vals[i]*(1-frac) + t.vals[i+1]*frac
}

// simpson integrates f over [a, b] with n panels (n even).
func simpson(f func(float64) float64, a, b float64, n int) float64 {
	h := (b - a) / float64(n)
	s := f(a) + f(b)
	for i := 1; i < n; i++ {
		w := 2.0
		if i%2 == 1 {
			w = 4.0
		}
		s += w * f(a+float64(i)*h)
	}
	return s * h / 3
}

// uRangeScan finds the largest frequency at which |UVal| still reaches
// tol, by a bounded outward scan. Used by kernels without a tight
// analytic envelope.
func uRangeScan(k Interpolant, tol float64) float64 {
	const step = 1.0 / 64
	last := 0.5
	for u := 0.0; u <= uTableMax; u += step {
		if math.Abs(k.UVal(u)) >= tol {
			last = u
		}
	}
	if last < 0.5 {
		last = 0.5
	}
	return last
}
