package profile

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"galprof/pkg/geom"
	"galprof/pkg/grid"
	"galprof/pkg/image"
	"galprof/pkg/interpolant"
	"galprof/pkg/photon"
)

// ImageOptions configures an InterpolatedImage. Zero values select
// defaults: full image bounds, quintic kernels, automatic stepK/maxK,
// default tolerances.
type ImageOptions struct {
	// InitBounds is the index rectangle the caller actually initialized;
	// undefined means the whole image.
	InitBounds geom.Bounds

	// NonzeroBounds is the rectangle outside which flux is known to be
	// exactly zero; undefined means InitBounds.
	NonzeroBounds geom.Bounds

	// XInterp reconstructs real-space values between samples; nil means
	// quintic.
	XInterp interpolant.Interpolant

	// KInterp interpolates the transform between its native frequency
	// samples; nil means quintic.
	KInterp interpolant.Interpolant

	// StepK and MaxK override the automatic searches when positive.
	StepK float64
	MaxK  float64

	// Params overrides the default tolerances when non-nil.
	Params *GSParams
}

// InterpolatedImage is a profile reconstructed from a discrete image: a
// continuous, band-limited surface-brightness function defined by the
// sample grid and a pair of interpolation kernels. The profile keeps a
// reference to the caller's sample buffer for its whole lifetime and
// never writes through it.
type InterpolatedImage struct {
	img        *image.Image
	initBounds geom.Bounds
	nonzero    geom.Bounds
	xInterp    interpolant.Interpolant
	kInterp    interpolant.Interpolant
	params     GSParams

	flux   float64
	absSum float64
	// Profile origin sits at the center of this pixel.
	cx, cy int
	gridN  int

	stepKCache atomicFloat
	maxKCache  atomicFloat

	ktOnce sync.Once
	ktab   *grid.KTable

	shootOnce sync.Once
	shootCum  []float64
	shootIdx  []int
}

// NewInterpolatedImage wraps img as a continuous profile. img must stay
// unmodified for the profile's lifetime. An automatic stepK search needs
// a strictly positive total flux; signed images with non-positive totals
// must supply an explicit ImageOptions.StepK.
func NewInterpolatedImage(img *image.Image, opt ImageOptions) (*InterpolatedImage, error) {
	initBounds := opt.InitBounds
	if !initBounds.IsDefined() {
		initBounds = img.Bounds()
	} else if !img.Bounds().IncludesBounds(initBounds) {
		return nil, fmt.Errorf("init bounds %v outside image %v: %w",
			initBounds, img.Bounds(), ErrDegenerateInput)
	}
	nonzero := opt.NonzeroBounds
	if !nonzero.IsDefined() {
		nonzero = initBounds
	}

	xInterp := opt.XInterp
	if xInterp == nil {
		xInterp = &interpolant.Quintic{}
	}
	kInterp := opt.KInterp
	if kInterp == nil {
		kInterp = &interpolant.Quintic{}
	}
	params := DefaultGSParams()
	if opt.Params != nil {
		params = *opt.Params
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	var flux, absSum float64
	for iy := initBounds.YMin; iy <= initBounds.YMax; iy++ {
		for ix := initBounds.XMin; ix <= initBounds.XMax; ix++ {
			v := img.At(ix, iy)
			flux += v
			absSum += math.Abs(v)
		}
	}
	if flux <= 0 && opt.StepK == 0 {
		return nil, fmt.Errorf("automatic stepK with total flux %v: %w", flux, ErrDegenerateInput)
	}

	maxDim := initBounds.Width()
	if initBounds.Height() > maxDim {
		maxDim = initBounds.Height()
	}
	n := goodFFTSize(params.PadFactor*maxDim, params.MinimumFFTSize)
	if n > params.MaximumFFTSize {
		return nil, fmt.Errorf("image of dimension %d needs a %d-point grid, maximum is %d: %w",
			maxDim, n, params.MaximumFFTSize, ErrConfigurationViolation)
	}

	p := &InterpolatedImage{
		img:        img,
		initBounds: initBounds,
		nonzero:    nonzero,
		xInterp:    xInterp,
		kInterp:    kInterp,
		params:     params,
		flux:       flux,
		absSum:     absSum,
		cx:         (initBounds.XMin + initBounds.XMax + 1) / 2,
		cy:         (initBounds.YMin + initBounds.YMax + 1) / 2,
		gridN:      n,
	}
	if opt.StepK > 0 {
		p.stepKCache.store(opt.StepK)
	}
	if opt.MaxK > 0 {
		p.maxKCache.store(opt.MaxK)
	}
	return p, nil
}

// pixelPos returns the real-space position of pixel (ix, iy).
func (p *InterpolatedImage) pixelPos(ix, iy int) geom.Position {
	s := p.img.Scale()
	return geom.Position{X: float64(ix-p.cx) * s, Y: float64(iy-p.cy) * s}
}

// ValueReal resamples the image at the requested point with the
// real-space kernel. Points beyond the declared nonzero bounds are
// exactly zero: the kernel is never consulted there, both as a
// short-circuit and as the profile's exactness guarantee.
func (p *InterpolatedImage) ValueReal(pos geom.Position) float64 {
	s := p.img.Scale()
	u := pos.X/s + float64(p.cx)
	v := pos.Y/s + float64(p.cy)
	if u < float64(p.nonzero.XMin)-0.5 || u > float64(p.nonzero.XMax)+0.5 ||
		v < float64(p.nonzero.YMin)-0.5 || v > float64(p.nonzero.YMax)+0.5 {
		return 0
	}

	r := p.xInterp.XRange()
	ix0 := int(math.Ceil(u - r))
	ix1 := int(math.Floor(u + r))
	iy0 := int(math.Ceil(v - r))
	iy1 := int(math.Floor(v + r))
	var sum float64
	for iy := iy0; iy <= iy1; iy++ {
		wy := p.xInterp.XVal(v - float64(iy))
		if wy == 0 {
			continue
		}
		for ix := ix0; ix <= ix1; ix++ {
			if !p.initBounds.Includes(ix, iy) {
				continue
			}
			wx := p.xInterp.XVal(u - float64(ix))
			if wx == 0 {
				continue
			}
			sum += wx * wy * p.img.At(ix, iy)
		}
	}
	return sum / (s * s)
}

// ValueK interpolates the image's cached discrete transform at the
// requested frequency and attenuates by the real-space kernel's own
// transform, which is what band-limits the reconstruction. The discrete
// transform repeats past the pixel Nyquist frequency, so frequencies out
// to MaxK read the periodic extension of the grid; only the kernel
// attenuation, evaluated at the true frequency, decays there.
func (p *InterpolatedImage) ValueK(k geom.Position) complex128 {
	p.ktOnce.Do(p.buildKTable)
	s := p.img.Scale()
	kxp := k.X * s // radians per pixel
	kyp := k.Y * s
	val := p.ktab.InterpolateWrapped(kxp, kyp, p.kInterp)
	att := p.xInterp.UVal(kxp/(2*math.Pi)) * p.xInterp.UVal(kyp/(2*math.Pi))
	return val * complex(att, 0)
}

// buildKTable transforms the image once onto a padded grid in per-pixel
// units (dx = 1, so dk = 2*pi/N).
func (p *InterpolatedImage) buildKTable() {
	xt, err := grid.NewXTable(p.gridN, 1)
	if err != nil {
		// Geometry was validated at construction.
		panic(fmt.Sprintf("interpolated image grid: %v", err))
	}
	for iy := p.initBounds.YMin; iy <= p.initBounds.YMax; iy++ {
		for ix := p.initBounds.XMin; ix <= p.initBounds.XMax; ix++ {
			xt.Set(ix-p.cx, iy-p.cy, p.img.At(ix, iy))
		}
	}
	p.ktab = xt.Transform()
}

// StepK is computed on first use from the flux-containment radius at
// 1 - FoldingThreshold, widened by the kernel support, then cached.
func (p *InterpolatedImage) StepK() float64 {
	if v := p.stepKCache.load(); v > 0 {
		return v
	}
	s := p.img.Scale()
	halfWidth := float64(p.initBounds.Width()) / 2 * s
	halfHeight := float64(p.initBounds.Height()) / 2 * s
	diag := math.Hypot(halfWidth, halfHeight)
	r, err := sizeContainingFlux(p.img, p.initBounds, 1-p.params.FoldingThreshold)
	if err != nil {
		// Positive flux was checked at construction, so the search can
		// only fail by exhaustion; fall back to the full image extent.
		r = diag
	}
	r = math.Min(math.Max(r, s), diag)
	r += p.xInterp.XRange() * s
	v := math.Pi / r
	p.stepKCache.store(v)
	return v
}

// MaxK defaults to where the real-space kernel's transform falls below
// the configured accuracy: beyond that frequency every image detail is
// attenuated under tolerance regardless of the image content. Cached;
// CalculateMaxK replaces it with a measured value.
func (p *InterpolatedImage) MaxK() float64 {
	if v := p.maxKCache.load(); v > 0 {
		return v
	}
	v := 2 * math.Pi * p.xInterp.URange(p.params.KValueAccuracy) / p.img.Scale()
	p.maxKCache.store(v)
	return v
}

// CalculateMaxK re-derives maxK from the image's actual transform: it
// scans the cached Fourier grid outward and keeps the outermost radius
// at which the attenuated amplitude still reaches MaxKThreshold of the
// total flux. When maxMaxK is positive the scan is capped there and the
// result never exceeds it. The refined value is published and returned
// by subsequent MaxK calls. Deterministic for a given image and
// tolerance, and monotone non-increasing as the tolerance loosens.
func (p *InterpolatedImage) CalculateMaxK(maxMaxK float64) (float64, error) {
	if p.flux == 0 && p.absSum == 0 {
		return 0, fmt.Errorf("maxK of empty image: %w", ErrDegenerateInput)
	}
	p.ktOnce.Do(p.buildKTable)

	s := p.img.Scale()
	norm := math.Abs(p.flux)
	if norm == 0 {
		norm = p.absSum
	}
	threshold := p.params.MaxKThreshold * norm
	dk := p.ktab.Dk()
	half := p.ktab.N() / 2

	capPix := math.Inf(1)
	if maxMaxK > 0 {
		capPix = maxMaxK * s
	}
	var outermost float64
	for jk := -half; jk < half; jk++ {
		for ik := -half; ik < half; ik++ {
			kr := math.Hypot(float64(ik), float64(jk)) * dk
			if kr <= outermost || kr > capPix {
				continue
			}
			att := p.xInterp.UVal(float64(ik)*dk/(2*math.Pi)) *
				p.xInterp.UVal(float64(jk)*dk/(2*math.Pi))
			if cmplxAbs(p.ktab.At(ik, jk))*math.Abs(att) >= threshold {
				outermost = kr
			}
		}
	}

	v := (outermost + dk) / s
	if maxMaxK > 0 && v > maxMaxK {
		v = maxMaxK
	}
	p.maxKCache.store(v)
	return v, nil
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

func (p *InterpolatedImage) Flux() float64 { return p.flux }

// Centroid is the closed-form first moment of the samples; no numerical
// integration of the reconstruction is ever performed, which keeps the
// moment stable for near-zero total flux where quadrature would lose all
// significance.
func (p *InterpolatedImage) Centroid() (geom.Position, error) {
	if p.flux == 0 {
		return geom.Position{}, fmt.Errorf("centroid of zero-flux image: %w", ErrDegenerateInput)
	}
	c := centroidOver(p.img, p.initBounds)
	s := p.img.Scale()
	return geom.Position{
		X: (c.X - float64(p.cx)) * s,
		Y: (c.Y - float64(p.cy)) * s,
	}, nil
}

// Shoot draws photons pixel-by-pixel from the absolute-flux distribution
// and jitters them uniformly within their pixel. Negative pixels emit
// negative-flux photons, so signed images shoot faithfully.
func (p *InterpolatedImage) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shoot %d photons: %w", n, ErrDegenerateInput)
	}
	if p.absSum == 0 {
		return nil, fmt.Errorf("shoot empty image: %w", ErrDegenerateInput)
	}
	p.shootOnce.Do(p.buildShootTable)

	s := p.img.Scale()
	w := p.initBounds.Width()
	fluxPer := p.absSum / float64(n)
	arr := photon.NewArray(n)
	for i := 0; i < n; i++ {
		target := ud.Float64() * p.absSum
		j := sort.SearchFloat64s(p.shootCum, target)
		if j >= len(p.shootIdx) {
			j = len(p.shootIdx) - 1
		}
		idx := p.shootIdx[j]
		ix := p.initBounds.XMin + idx%w
		iy := p.initBounds.YMin + idx/w
		pos := p.pixelPos(ix, iy)
		x := pos.X + (ud.Float64()-0.5)*s
		y := pos.Y + (ud.Float64()-0.5)*s
		f := fluxPer
		if p.img.At(ix, iy) < 0 {
			f = -f
		}
		arr.Set(i, x, y, f)
	}
	return arr, nil
}

func (p *InterpolatedImage) buildShootTable() {
	w := p.initBounds.Width()
	var cum float64
	for iy := p.initBounds.YMin; iy <= p.initBounds.YMax; iy++ {
		for ix := p.initBounds.XMin; ix <= p.initBounds.XMax; ix++ {
			v := math.Abs(p.img.At(ix, iy))
			if v == 0 {
				continue
			}
			cum += v
			p.shootCum = append(p.shootCum, cum)
			p.shootIdx = append(p.shootIdx, (iy-p.initBounds.YMin)*w+(ix-p.initBounds.XMin))
		}
	}
}

func (p *InterpolatedImage) Params() GSParams { return p.params }
