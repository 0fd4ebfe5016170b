package profile

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"galprof/pkg/geom"
	"galprof/pkg/photon"
)

// Transform applies an affine map to a profile: a linear distortion A,
// a translation, and a flux ratio. The transformed profile is
//
//	f'(x) = fluxRatio * f(A^-1 (x - offset))
//
// whose total flux is fluxRatio * |det A| * Flux(f). Its transform is
// f'^(k) = fluxRatio * |det A| * f^(A^T k) * exp(-i k.offset).
type Transform struct {
	child     Profile
	fwd       *mat.Dense // A
	inv       *mat.Dense // A^-1
	absDet    float64
	offset    geom.Position
	fluxRatio float64
	sMin      float64 // singular values of A
	sMax      float64
	params    GSParams
}

// NewTransform builds an affine transform of child. a is the 2x2 linear
// map in row-major order {axx, axy, ayx, ayy}; a singular map is refused.
func NewTransform(child Profile, a [4]float64, offset geom.Position, fluxRatio float64) (*Transform, error) {
	fwd := mat.NewDense(2, 2, a[:])
	det := mat.Det(fwd)
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return nil, fmt.Errorf("singular affine map %v: %w", a, ErrDegenerateInput)
	}
	inv := mat.NewDense(2, 2, nil)
	if err := inv.Inverse(fwd); err != nil {
		return nil, fmt.Errorf("inverting affine map: %w", err)
	}

	var svd mat.SVD
	if !svd.Factorize(fwd, mat.SVDNone) {
		return nil, fmt.Errorf("factorizing affine map %v: %w", a, ErrDegenerateInput)
	}
	sv := svd.Values(nil)

	return &Transform{
		child:     child,
		fwd:       fwd,
		inv:       inv,
		absDet:    math.Abs(det),
		offset:    offset,
		fluxRatio: fluxRatio,
		sMax:      sv[0],
		sMin:      sv[1],
		params:    child.Params(),
	}, nil
}

// Scale is shorthand for an isotropic magnification by s.
func Scale(child Profile, s float64) (*Transform, error) {
	return NewTransform(child, [4]float64{s, 0, 0, s}, geom.Position{}, 1)
}

// Dilate is a flux-preserving magnification: the profile is scaled by s
// while the surface brightness drops by s^2 to keep the total flux fixed.
func Dilate(child Profile, s float64) (*Transform, error) {
	return NewTransform(child, [4]float64{s, 0, 0, s}, geom.Position{}, 1/(s*s))
}

// Shift is shorthand for a pure translation.
func Shift(child Profile, dx, dy float64) (*Transform, error) {
	return NewTransform(child, [4]float64{1, 0, 0, 1}, geom.Position{X: dx, Y: dy}, 1)
}

func (t *Transform) apply(m *mat.Dense, p geom.Position) geom.Position {
	return geom.Position{
		X: m.At(0, 0)*p.X + m.At(0, 1)*p.Y,
		Y: m.At(1, 0)*p.X + m.At(1, 1)*p.Y,
	}
}

func (t *Transform) ValueReal(p geom.Position) float64 {
	q := t.apply(t.inv, p.Sub(t.offset))
	return t.fluxRatio * t.child.ValueReal(q)
}

func (t *Transform) ValueK(k geom.Position) complex128 {
	// A^T k
	kt := geom.Position{
		X: t.fwd.At(0, 0)*k.X + t.fwd.At(1, 0)*k.Y,
		Y: t.fwd.At(0, 1)*k.X + t.fwd.At(1, 1)*k.Y,
	}
	v := complex(t.fluxRatio*t.absDet, 0) * t.child.ValueK(kt)
	if t.offset.X != 0 || t.offset.Y != 0 {
		v *= cmplx.Exp(complex(0, -(k.X*t.offset.X + k.Y*t.offset.Y)))
	}
	return v
}

// StepK shrinks by the largest spatial stretch, since the profile grows
// by that factor in real space; a translation tightens it further so the
// shifted support still fits inside the implied grid.
func (t *Transform) StepK() float64 {
	s := t.child.StepK() / t.sMax
	if t.offset.X != 0 || t.offset.Y != 0 {
		shift := math.Hypot(t.offset.X, t.offset.Y)
		s = math.Min(s, math.Pi/(shift+math.Pi/s))
	}
	return s
}

// MaxK shrinks by the smallest spatial stretch: expanding a profile
// compresses its transform.
func (t *Transform) MaxK() float64 {
	return t.child.MaxK() / t.sMin
}

func (t *Transform) Flux() float64 {
	return t.fluxRatio * t.absDet * t.child.Flux()
}

// Centroid maps the child's centroid through the affine map.
func (t *Transform) Centroid() (geom.Position, error) {
	c, err := t.child.Centroid()
	if err != nil {
		return geom.Position{}, err
	}
	return t.apply(t.fwd, c).Add(t.offset), nil
}

// Shoot shoots the child and maps each photon through the affine map,
// rescaling fluxes by the Jacobian so total flux is preserved.
func (t *Transform) Shoot(n int, ud photon.Deviate) (*photon.Array, error) {
	arr, err := t.child.Shoot(n, ud)
	if err != nil {
		return nil, err
	}
	scale := t.fluxRatio * t.absDet
	for i := 0; i < arr.Len(); i++ {
		x, y, f := arr.At(i)
		q := t.apply(t.fwd, geom.Position{X: x, Y: y}).Add(t.offset)
		arr.Set(i, q.X, q.Y, f*scale)
	}
	return arr, nil
}

func (t *Transform) Params() GSParams { return t.params }
