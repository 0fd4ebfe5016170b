package profile

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"galprof/pkg/geom"
	"galprof/pkg/grid"
	"galprof/pkg/interpolant"
	"galprof/pkg/photon"
)

// InterpolatedKImage is a profile whose native data is a Fourier-space
// grid: used when a profile's transform is known directly and no
// real-space image exists. ValueK interpolates the supplied grid;
// ValueReal comes from a cached inverse transform. stepK is supplied by
// the caller, derived from whatever sampling produced the grid.
type InterpolatedKImage struct {
	ktab    *grid.KTable
	kInterp interpolant.Interpolant
	xKern   *interpolant.Quintic
	stepK   float64
	params  GSParams

	maxKCache atomicFloat

	xtOnce sync.Once
	xtab   *grid.XTable

	shootOnce sync.Once
	shootCum  []float64
	shootIdx  []int
	shootAbs  float64
}

// NewInterpolatedKImage wraps a caller-supplied Fourier grid. stepK must
// be positive; kInterp nil selects quintic. The grid is treated as
// read-only for the profile's lifetime.
func NewInterpolatedKImage(ktab *grid.KTable, stepK float64, kInterp interpolant.Interpolant, params *GSParams) (*InterpolatedKImage, error) {
	if ktab == nil {
		return nil, fmt.Errorf("nil k-space grid: %w", ErrDegenerateInput)
	}
	if stepK <= 0 || math.IsInf(stepK, 0) || math.IsNaN(stepK) {
		return nil, fmt.Errorf("stepK %v must be positive and finite: %w", stepK, ErrDegenerateInput)
	}
	if kInterp == nil {
		kInterp = &interpolant.Quintic{}
	}
	gp := DefaultGSParams()
	if params != nil {
		gp = *params
	}
	if err := gp.Validate(); err != nil {
		return nil, err
	}
	if ktab.N() > gp.MaximumFFTSize {
		return nil, fmt.Errorf("k grid dimension %d, maximum is %d: %w",
			ktab.N(), gp.MaximumFFTSize, ErrConfigurationViolation)
	}
	return &InterpolatedKImage{
		ktab:    ktab,
		kInterp: kInterp,
		xKern:   &interpolant.Quintic{},
		stepK:   stepK,
		params:  gp,
	}, nil
}

func (p *InterpolatedKImage) ValueK(k geom.Position) complex128 {
	return p.ktab.Interpolate(k.X, k.Y, p.kInterp)
}

// ValueReal interpolates the grid's inverse transform, computed once on
// first call, with an implicit quintic kernel.
func (p *InterpolatedKImage) ValueReal(pos geom.Position) float64 {
	p.xtOnce.Do(func() { p.xtab = p.ktab.InverseTransform() })
	return p.xtab.Interpolate(pos.X, pos.Y, p.xKern)
}

func (p *InterpolatedKImage) StepK() float64 { return p.stepK }

// MaxK scans the supplied grid for the outermost sample whose amplitude
// still reaches MaxKThreshold of the zero-frequency amplitude, computed
// once and cached. A grid of pure zeros reports the grid edge.
func (p *InterpolatedKImage) MaxK() float64 {
	if v := p.maxKCache.load(); v > 0 {
		return v
	}
	norm := cmplxAbs(p.ktab.At(0, 0))
	if norm == 0 {
		v := p.ktab.MaxK()
		p.maxKCache.store(v)
		return v
	}
	threshold := p.params.MaxKThreshold * norm
	half := p.ktab.N() / 2
	dk := p.ktab.Dk()
	var outermost float64
	for jk := -half; jk < half; jk++ {
		for ik := -half; ik < half; ik++ {
			kr := math.Hypot(float64(ik), float64(jk)) * dk
			if kr <= outermost {
				continue
			}
			if cmplxAbs(p.ktab.At(ik, jk)) >= threshold {
				outermost = kr
			}
		}
	}
	v := outermost + dk
	p.maxKCache.store(v)
	return v
}

// Flux is the zero-frequency amplitude.
func (p *InterpolatedKImage) Flux() float64 {
	return real(p.ktab.At(0, 0))
}

// Centroid comes from the transform's phase gradient at the origin,
// via central differences on the grid: the closed-form route, chosen
// because integrating the inverse transform would be far less stable
// for near-zero total flux.
func (p *InterpolatedKImage) Centroid() (geom.Position, error) {
	f0 := real(p.ktab.At(0, 0))
	if f0 == 0 {
		return geom.Position{}, fmt.Errorf("centroid of zero-flux k image: %w", ErrDegenerateInput)
	}
	dk := p.ktab.Dk()
	dx := (p.ktab.At(1, 0) - p.ktab.At(-1, 0)) / complex(2*dk, 0)
	dy := (p.ktab.At(0, 1) - p.ktab.At(0, -1)) / complex(2*dk, 0)
	// dF/dk at 0 is -i * c * F(0) for a real profile.
	return geom.Position{
		X: real(complex(0, 1) * dx / complex(f0, 0)),
		Y: real(complex(0, 1) * dy / complex(f0, 0)),
	}, nil
}

// Shoot samples the cached real-space grid the same way an image-backed
// profile does: pixel selection by absolute value, uniform jitter within
// a cell.
func (p *InterpolatedKImage) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shoot %d photons: %w", n, ErrDegenerateInput)
	}
	p.xtOnce.Do(func() { p.xtab = p.ktab.InverseTransform() })
	p.shootOnce.Do(p.buildShootTable)
	if p.shootAbs == 0 {
		return nil, fmt.Errorf("shoot zero k image: %w", ErrDegenerateInput)
	}

	nGrid := p.xtab.N()
	half := nGrid / 2
	dx := p.xtab.Dx()
	fluxPer := p.shootAbs * dx * dx / float64(n)
	arr := photon.NewArray(n)
	for i := 0; i < n; i++ {
		target := ud.Float64() * p.shootAbs
		j := sort.SearchFloat64s(p.shootCum, target)
		if j >= len(p.shootIdx) {
			j = len(p.shootIdx) - 1
		}
		idx := p.shootIdx[j]
		px := idx%nGrid - half
		py := idx/nGrid - half
		x := (float64(px) + ud.Float64() - 0.5) * dx
		y := (float64(py) + ud.Float64() - 0.5) * dx
		f := fluxPer
		if p.xtab.At(px, py) < 0 {
			f = -f
		}
		arr.Set(i, x, y, f)
	}
	return arr, nil
}

func (p *InterpolatedKImage) buildShootTable() {
	nGrid := p.xtab.N()
	half := nGrid / 2
	var cum float64
	for iy := -half; iy < half; iy++ {
		for ix := -half; ix < half; ix++ {
			v := math.Abs(p.xtab.At(ix, iy))
			if v == 0 {
				continue
			}
			cum += v
			p.shootCum = append(p.shootCum, cum)
			p.shootIdx = append(p.shootIdx, (iy+half)*nGrid+(ix+half))
		}
	}
	p.shootAbs = cum
}

func (p *InterpolatedKImage) Params() GSParams { return p.params }
