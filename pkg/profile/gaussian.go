package profile

import (
	"fmt"
	"math"

	"galprof/pkg/geom"
	"galprof/pkg/photon"
)

// Gaussian is a circular Gaussian profile, the simplest primitive
// profile family. Its real-space form, Fourier transform and sampling
// parameters all have closed forms, so no adaptive search is needed:
//
//	I(r) = flux/(2*pi*sigma^2) * exp(-r^2/(2*sigma^2))
//	F(k) = flux * exp(-sigma^2 k^2 / 2)
type Gaussian struct {
	sigma  float64
	flux   float64
	params GSParams
}

// NewGaussian creates a Gaussian with the given size and total flux.
// sigma must be positive and finite.
func NewGaussian(sigma, flux float64, params GSParams) (*Gaussian, error) {
	if sigma <= 0 || math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		return nil, fmt.Errorf("gaussian sigma %v: %w", sigma, ErrDegenerateInput)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Gaussian{sigma: sigma, flux: flux, params: params}, nil
}

// Sigma returns the Gaussian's scale radius.
func (g *Gaussian) Sigma() float64 { return g.sigma }

func (g *Gaussian) ValueReal(p geom.Position) float64 {
	r2 := p.X*p.X + p.Y*p.Y
	s2 := g.sigma * g.sigma
	return g.flux / (2 * math.Pi * s2) * math.Exp(-r2/(2*s2))
}

func (g *Gaussian) ValueK(k geom.Position) complex128 {
	k2 := k.X*k.X + k.Y*k.Y
	return complex(g.flux*math.Exp(-g.sigma*g.sigma*k2/2), 0)
}

// StepK is pi over the radius enclosing all but FoldingThreshold of the
// flux; for a Gaussian that radius is sigma*sqrt(-2 ln f).
func (g *Gaussian) StepK() float64 {
	r := g.sigma * math.Sqrt(-2*math.Log(g.params.FoldingThreshold))
	return math.Pi / r
}

// MaxK is where the transform's amplitude falls to MaxKThreshold of peak.
func (g *Gaussian) MaxK() float64 {
	return math.Sqrt(-2*math.Log(g.params.MaxKThreshold)) / g.sigma
}

func (g *Gaussian) Flux() float64 { return g.flux }

// Centroid is identically the origin, by symmetry. Closed form; no
// numerical integration is involved.
func (g *Gaussian) Centroid() (geom.Position, error) {
	return geom.Position{}, nil
}

// Shoot draws photons from the radial CDF: each photon consumes two
// uniform draws, one for the radius and one for the azimuth.
func (g *Gaussian) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shoot %d photons: %w", n, ErrDegenerateInput)
	}
	arr := photon.NewArray(n)
	fluxPer := g.flux / float64(n)
	for i := 0; i < n; i++ {
		u := ud.Float64()
		r := g.sigma * math.Sqrt(-2*math.Log(1-u))
		theta := 2 * math.Pi * ud.Float64()
		arr.Set(i, r*math.Cos(theta), r*math.Sin(theta), fluxPer)
	}
	return arr, nil
}

func (g *Gaussian) Params() GSParams { return g.params }
