package profile

import (
	"fmt"
	"math"

	"galprof/pkg/geom"
	"galprof/pkg/photon"
)

// Sum is the linear superposition of two or more profiles. Brightness
// composition is additive: values add in both domains, fluxes add, and
// photon shooting splits the photon budget by absolute flux.
type Sum struct {
	children []Profile
	params   GSParams
}

// NewSum composes the given profiles into their superposition. The
// result owns its child handles; at least one summand is required.
func NewSum(children ...Profile) (*Sum, error) {
	if len(children) == 0 {
		return nil, fmt.Errorf("sum of no profiles: %w", ErrDegenerateInput)
	}
	ps := make([]GSParams, len(children))
	for i, c := range children {
		ps[i] = c.Params()
	}
	return &Sum{children: children, params: mergeParams(ps)}, nil
}

func (s *Sum) ValueReal(p geom.Position) float64 {
	var v float64
	for _, c := range s.children {
		v += c.ValueReal(p)
	}
	return v
}

func (s *Sum) ValueK(k geom.Position) complex128 {
	var v complex128
	for _, c := range s.children {
		v += c.ValueK(k)
	}
	return v
}

// StepK is the minimum over summands: the superposition folds wherever
// its most extended component folds.
func (s *Sum) StepK() float64 {
	v := math.Inf(1)
	for _, c := range s.children {
		v = math.Min(v, c.StepK())
	}
	return v
}

// MaxK is the maximum over summands: power persists out to wherever any
// component still has power.
func (s *Sum) MaxK() float64 {
	var v float64
	for _, c := range s.children {
		v = math.Max(v, c.MaxK())
	}
	return v
}

func (s *Sum) Flux() float64 {
	var f float64
	for _, c := range s.children {
		f += c.Flux()
	}
	return f
}

// Centroid is the flux-weighted mean of the children's centroids, the
// closed-form first moment of a superposition. A net-zero-flux sum has
// no centroid.
func (s *Sum) Centroid() (geom.Position, error) {
	total := s.Flux()
	if total == 0 {
		return geom.Position{}, fmt.Errorf("centroid of zero-flux sum: %w", ErrDegenerateInput)
	}
	var cx, cy float64
	for _, c := range s.children {
		cc, err := c.Centroid()
		if err != nil {
			return geom.Position{}, err
		}
		f := c.Flux()
		cx += f * cc.X
		cy += f * cc.Y
	}
	return geom.Position{X: cx / total, Y: cy / total}, nil
}

// Shoot splits the photon budget across summands in proportion to
// absolute flux, so negative components are represented by
// negative-flux photons rather than skipped.
func (s *Sum) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	if n <= 0 {
		return nil, fmt.Errorf("shoot %d photons: %w", n, ErrDegenerateInput)
	}
	var absTotal float64
	for _, c := range s.children {
		absTotal += math.Abs(c.Flux())
	}
	if absTotal == 0 {
		return nil, fmt.Errorf("shoot zero-flux sum: %w", ErrDegenerateInput)
	}

	out := photon.NewArray(n)
	next := 0
	for ci, c := range s.children {
		ni := int(math.Round(float64(n) * math.Abs(c.Flux()) / absTotal))
		if ci == len(s.children)-1 {
			ni = n - next
		}
		if ni <= 0 {
			continue
		}
		if next+ni > n {
			ni = n - next
		}
		sub, err := c.Shoot(ni, ud)
		if err != nil {
			return nil, err
		}
		for i := 0; i < sub.Len(); i++ {
			x, y, f := sub.At(i)
			out.Set(next+i, x, y, f)
		}
		next += ni
	}
	return out, nil
}

func (s *Sum) Params() GSParams { return s.params }

// mergeParams combines the tolerance bundles of composed children,
// tightest-wins per field.
func mergeParams(ps []GSParams) GSParams {
	out := ps[0]
	for _, p := range ps[1:] {
		out.FoldingThreshold = math.Min(out.FoldingThreshold, p.FoldingThreshold)
		out.MaxKThreshold = math.Min(out.MaxKThreshold, p.MaxKThreshold)
		out.KValueAccuracy = math.Min(out.KValueAccuracy, p.KValueAccuracy)
		out.XValueAccuracy = math.Min(out.XValueAccuracy, p.XValueAccuracy)
		if p.MinimumFFTSize > out.MinimumFFTSize {
			out.MinimumFFTSize = p.MinimumFFTSize
		}
		if p.MaximumFFTSize < out.MaximumFFTSize {
			out.MaximumFFTSize = p.MaximumFFTSize
		}
		if p.PadFactor > out.PadFactor {
			out.PadFactor = p.PadFactor
		}
		if p.MaxIterations > out.MaxIterations {
			out.MaxIterations = p.MaxIterations
		}
	}
	return out
}
