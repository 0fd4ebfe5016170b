package profile

import (
	"fmt"
	"math"
	"sync"

	"galprof/pkg/geom"
	"galprof/pkg/grid"
	"galprof/pkg/interpolant"
	"galprof/pkg/photon"
)

// Convolution composes profiles by convolution: a pointwise product in
// Fourier space. Sampling parameters follow the tightest-wins rule:
// the result's stepK and maxK are each the minimum over the factors,
// since either factor already attenuates beyond its own band limit.
type Convolution struct {
	children []Profile
	params   GSParams
	stepK    float64
	maxK     float64

	// Real-space evaluation synthesizes the product onto a Fourier grid
	// once and interpolates its inverse transform. Grid geometry is fixed
	// and validated at construction so the lazy build cannot fail.
	gridN  int
	gridDk float64
	once   sync.Once
	xtab   *grid.XTable
	kern   *interpolant.Quintic
}

// NewConvolve composes the given profiles by convolution. At least two
// factors are required; the result owns its child handles.
func NewConvolve(children ...Profile) (*Convolution, error) {
	if len(children) < 2 {
		return nil, fmt.Errorf("convolution of %d profiles: %w", len(children), ErrDegenerateInput)
	}
	ps := make([]GSParams, len(children))
	stepK := math.Inf(1)
	maxK := math.Inf(1)
	for i, c := range children {
		ps[i] = c.Params()
		stepK = math.Min(stepK, c.StepK())
		maxK = math.Min(maxK, c.MaxK())
	}
	params := mergeParams(ps)

	n := goodFFTSize(int(math.Ceil(2*maxK/stepK))+2, params.MinimumFFTSize)
	if n > params.MaximumFFTSize {
		return nil, fmt.Errorf("convolution needs a %d-point grid, maximum is %d: %w",
			n, params.MaximumFFTSize, ErrConfigurationViolation)
	}

	return &Convolution{
		children: children,
		params:   params,
		stepK:    stepK,
		maxK:     maxK,
		gridN:    n,
		gridDk:   stepK,
		kern:     &interpolant.Quintic{},
	}, nil
}

func (c *Convolution) ValueK(k geom.Position) complex128 {
	v := complex(1, 0)
	for _, ch := range c.children {
		v *= ch.ValueK(k)
	}
	return v
}

// ValueReal interpolates the cached inverse transform of the factors'
// Fourier product. The grid is built once, on first call.
func (c *Convolution) ValueReal(p geom.Position) float64 {
	c.once.Do(c.buildGrid)
	return c.xtab.Interpolate(p.X, p.Y, c.kern)
}

func (c *Convolution) buildGrid() {
	kt, err := grid.NewKTable(c.gridN, c.gridDk)
	if err != nil {
		// Geometry was validated at construction.
		panic(fmt.Sprintf("convolution grid: %v", err))
	}
	half := c.gridN / 2
	for jk := -half; jk < half; jk++ {
		for ik := -half; ik < half; ik++ {
			k := geom.Position{X: float64(ik) * c.gridDk, Y: float64(jk) * c.gridDk}
			kt.Set(ik, jk, c.ValueK(k))
		}
	}
	c.xtab = kt.InverseTransform()
}

func (c *Convolution) StepK() float64 { return c.stepK }

func (c *Convolution) MaxK() float64 { return c.maxK }

func (c *Convolution) Flux() float64 {
	f := 1.0
	for _, ch := range c.children {
		f *= ch.Flux()
	}
	return f
}

// Centroid is the sum of the factors' centroids: convolution adds first
// moments. Closed form given the children's centroids.
func (c *Convolution) Centroid() (geom.Position, error) {
	var out geom.Position
	for _, ch := range c.children {
		cc, err := ch.Centroid()
		if err != nil {
			return geom.Position{}, err
		}
		out = out.Add(cc)
	}
	return out, nil
}

// Shoot shoots every factor independently and folds the photon sets
// together with the shuffle convolution.
func (c *Convolution) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	out, err := c.children[0].Shoot(n, ud)
	if err != nil {
		return nil, err
	}
	for _, ch := range c.children[1:] {
		next, err := ch.Shoot(n, ud)
		if err != nil {
			return nil, err
		}
		out, err = out.ConvolveShuffle(next, ud)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Convolution) Params() GSParams { return c.params }
