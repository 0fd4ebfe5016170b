package profile

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"

	"galprof/pkg/geom"
	"galprof/pkg/grid"
)

// gaussianKTable fills a Fourier grid with the analytic transform of a
// Gaussian of the given sigma and flux, optionally shifted so the phase
// carries a centroid.
func gaussianKTable(t *testing.T, n int, dk, sigma, flux, x0, y0 float64) *grid.KTable {
	t.Helper()
	kt, err := grid.NewKTable(n, dk)
	if err != nil {
		t.Fatalf("grid.NewKTable: %v", err)
	}
	half := n / 2
	for jk := -half; jk < half; jk++ {
		for ik := -half; ik < half; ik++ {
			kx := float64(ik) * dk
			ky := float64(jk) * dk
			amp := flux * math.Exp(-sigma*sigma*(kx*kx+ky*ky)/2)
			kt.Set(ik, jk, complex(amp, 0)*cmplx.Exp(complex(0, -(kx*x0+ky*y0))))
		}
	}
	return kt
}

func TestInterpolatedKImageValidation(t *testing.T) {
	if _, err := NewInterpolatedKImage(nil, 0.5, nil, nil); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("nil grid error = %v, want ErrDegenerateInput", err)
	}
	kt := gaussianKTable(t, 64, 0.25, 1, 1, 0, 0)
	for _, sk := range []float64{0, -1, math.Inf(1), math.NaN()} {
		if _, err := NewInterpolatedKImage(kt, sk, nil, nil); !errors.Is(err, ErrDegenerateInput) {
			t.Errorf("stepK %v error = %v, want ErrDegenerateInput", sk, err)
		}
	}
	params := DefaultGSParams()
	params.MaximumFFTSize = 32
	if _, err := NewInterpolatedKImage(kt, 0.25, nil, &params); !errors.Is(err, ErrConfigurationViolation) {
		t.Errorf("oversized grid error = %v, want ErrConfigurationViolation", err)
	}
}

func TestInterpolatedKImageValues(t *testing.T) {
	sigma, flux := 1.5, 4.0
	kt := gaussianKTable(t, 128, 0.1, sigma, flux, 0, 0)
	p, err := NewInterpolatedKImage(kt, 0.1, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}

	if got := p.Flux(); math.Abs(got-flux) > 1e-12 {
		t.Errorf("Flux = %v, want %v", got, flux)
	}
	if got := p.StepK(); got != 0.1 {
		t.Errorf("StepK = %v, want 0.1", got)
	}

	// Off-node frequencies come from interpolation of the analytic grid.
	for _, k := range []geom.Position{{X: 0.13}, {X: 0.31, Y: 0.27}, {Y: -0.52}} {
		k2 := k.X*k.X + k.Y*k.Y
		want := flux * math.Exp(-sigma*sigma*k2/2)
		got := real(p.ValueK(k))
		if math.Abs(got-want) > 1e-3*flux {
			t.Errorf("ValueK(%v) = %v, want %v", k, got, want)
		}
	}

	// The inverse transform recovers the real-space Gaussian.
	peak := flux / (2 * math.Pi * sigma * sigma)
	if got := p.ValueReal(geom.Position{}); math.Abs(got-peak) > 0.01*peak {
		t.Errorf("ValueReal(0) = %v, want %v within 1%%", got, peak)
	}
	r := geom.Position{X: sigma, Y: 0}
	want := peak * math.Exp(-0.5)
	if got := p.ValueReal(r); math.Abs(got-want) > 0.01*peak {
		t.Errorf("ValueReal(sigma) = %v, want %v", got, want)
	}
}

func TestInterpolatedKImageMaxK(t *testing.T) {
	sigma := 1.5
	kt := gaussianKTable(t, 128, 0.1, sigma, 1, 0, 0)
	p, err := NewInterpolatedKImage(kt, 0.1, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}

	// Amplitude crosses the default threshold 1e-3 at
	// sqrt(2 ln 1000)/sigma = 2.478; the scan resolves it to a grid step.
	want := math.Sqrt(2*math.Log(1000)) / sigma
	got := p.MaxK()
	if math.Abs(got-want) > 2*kt.Dk() {
		t.Errorf("MaxK = %v, want %v within 2 dk", got, want)
	}
	if again := p.MaxK(); again != got {
		t.Errorf("MaxK not stable: %v then %v", got, again)
	}
}

func TestInterpolatedKImageZeroGrid(t *testing.T) {
	kt, err := grid.NewKTable(64, 0.2)
	if err != nil {
		t.Fatalf("grid.NewKTable: %v", err)
	}
	p, err := NewInterpolatedKImage(kt, 0.2, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}
	// No signal anywhere: the band limit defaults to the grid edge.
	if got := p.MaxK(); got != kt.MaxK() {
		t.Errorf("MaxK = %v, want grid edge %v", got, kt.MaxK())
	}
	if _, err := p.Centroid(); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("zero-grid centroid error = %v, want ErrDegenerateInput", err)
	}
	if _, err := p.Shoot(100, rand.New(rand.NewSource(1))); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("zero-grid shoot error = %v, want ErrDegenerateInput", err)
	}
}

func TestInterpolatedKImageCentroid(t *testing.T) {
	kt := gaussianKTable(t, 128, 0.1, 1.5, 2, 1.25, -0.75)
	p, err := NewInterpolatedKImage(kt, 0.1, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}
	c, err := p.Centroid()
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	// Central differences on the phase gradient resolve the shift to
	// second order in dk.
	if math.Abs(c.X-1.25) > 0.03 || math.Abs(c.Y+0.75) > 0.03 {
		t.Errorf("Centroid = %v, want (1.25, -0.75)", c)
	}

	centered := gaussianKTable(t, 128, 0.1, 1.5, 2, 0, 0)
	pc, err := NewInterpolatedKImage(centered, 0.1, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}
	cc, err := pc.Centroid()
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if math.Abs(cc.X) > 1e-9 || math.Abs(cc.Y) > 1e-9 {
		t.Errorf("centered Centroid = %v, want origin", cc)
	}
}

func TestInterpolatedKImageShoot(t *testing.T) {
	sigma, flux := 1.5, 2.0
	kt := gaussianKTable(t, 128, 0.1, sigma, flux, 0, 0)
	p, err := NewInterpolatedKImage(kt, 0.1, nil, nil)
	if err != nil {
		t.Fatalf("NewInterpolatedKImage: %v", err)
	}

	arr, err := p.Shoot(8000, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("Shoot: %v", err)
	}
	if arr.Len() != 8000 {
		t.Fatalf("Len = %d, want 8000", arr.Len())
	}
	// The sampled grid integrates to the flux, so the photon total should
	// land close to it; ringing in the inverse transform costs a little.
	if got := arr.TotalFlux(); math.Abs(got-flux) > 0.05*flux {
		t.Errorf("TotalFlux = %v, want %v within 5%%", got, flux)
	}

	// Second moment of the positions tracks the Gaussian.
	var m2, fsum float64
	for i := 0; i < arr.Len(); i++ {
		x, y, f := arr.At(i)
		m2 += f * (x*x + y*y)
		fsum += f
	}
	if got, want := m2/fsum, 2*sigma*sigma; math.Abs(got-want) > 0.15*want {
		t.Errorf("mean square radius = %v, want %v", got, want)
	}

	// Fixed seed, fixed draw.
	arr2, err := p.Shoot(8000, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("Shoot repeat: %v", err)
	}
	x1, y1, f1 := arr.At(137)
	x2, y2, f2 := arr2.At(137)
	if x1 != x2 || y1 != y2 || f1 != f2 {
		t.Errorf("same seed diverged: (%v,%v,%v) vs (%v,%v,%v)", x1, y1, f1, x2, y2, f2)
	}
}
