package profile

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"galprof/pkg/geom"
)

func mustGaussian(t *testing.T, sigma, flux float64) *Gaussian {
	t.Helper()
	g, err := NewGaussian(sigma, flux, DefaultGSParams())
	if err != nil {
		t.Fatalf("NewGaussian(%v, %v): %v", sigma, flux, err)
	}
	return g
}

func TestGaussianValidation(t *testing.T) {
	if _, err := NewGaussian(0, 1, DefaultGSParams()); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("sigma=0 error = %v, want ErrDegenerateInput", err)
	}
	if _, err := NewGaussian(-2, 1, DefaultGSParams()); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("sigma<0 error = %v, want ErrDegenerateInput", err)
	}
}

func TestGaussianValues(t *testing.T) {
	g := mustGaussian(t, 1, 2)

	want := 2 / (2 * math.Pi)
	if got := g.ValueReal(geom.Position{}); math.Abs(got-want) > 1e-12 {
		t.Errorf("ValueReal(0) = %v, want %v", got, want)
	}
	if got := g.ValueK(geom.Position{}); math.Abs(real(got)-2) > 1e-12 || imag(got) != 0 {
		t.Errorf("ValueK(0) = %v, want (2, 0)", got)
	}

	// One sigma out along x: falls by exp(-1/2).
	wantR := want * math.Exp(-0.5)
	if got := g.ValueReal(geom.Position{X: 1}); math.Abs(got-wantR) > 1e-12 {
		t.Errorf("ValueReal(sigma) = %v, want %v", got, wantR)
	}
	wantK := 2 * math.Exp(-0.5)
	if got := real(g.ValueK(geom.Position{Y: 1})); math.Abs(got-wantK) > 1e-12 {
		t.Errorf("ValueK(1/sigma) = %v, want %v", got, wantK)
	}
}

// TestGaussianSamplingParams checks the closed-form stepK/maxK against
// their defining tolerances.
func TestGaussianSamplingParams(t *testing.T) {
	p := DefaultGSParams()
	g := mustGaussian(t, 2, 1)

	// Folding radius: all but FoldingThreshold of flux inside pi/stepK.
	r := math.Pi / g.StepK()
	enclosed := 1 - math.Exp(-r*r/(2*4))
	if math.Abs((1-enclosed)-p.FoldingThreshold) > 1e-12 {
		t.Errorf("flux beyond folding radius = %v, want %v", 1-enclosed, p.FoldingThreshold)
	}

	// Band limit: amplitude at maxK equals MaxKThreshold of peak.
	amp := real(g.ValueK(geom.Position{X: g.MaxK()}))
	if math.Abs(amp-p.MaxKThreshold) > 1e-12 {
		t.Errorf("|ValueK(maxK)| = %v, want %v", amp, p.MaxKThreshold)
	}

	if g.StepK() <= 0 || g.MaxK() <= 0 {
		t.Errorf("sampling parameters must be positive: stepK=%v maxK=%v", g.StepK(), g.MaxK())
	}
}

func TestGaussianCentroid(t *testing.T) {
	g := mustGaussian(t, 1, 3)
	c, err := g.Centroid()
	if err != nil {
		t.Fatalf("Centroid: %v", err)
	}
	if c.X != 0 || c.Y != 0 {
		t.Errorf("Centroid = %v, want origin", c)
	}
}

// TestGaussianShoot checks exact total flux, reproducibility under a
// fixed seed, and that the sample spread matches sigma.
func TestGaussianShoot(t *testing.T) {
	g := mustGaussian(t, 1.5, 4)
	const n = 20000

	arr, err := g.Shoot(n, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("Shoot: %v", err)
	}
	if arr.Len() != n {
		t.Fatalf("Len = %d, want %d", arr.Len(), n)
	}
	if got := arr.TotalFlux(); math.Abs(got-4) > 1e-9 {
		t.Errorf("TotalFlux = %v, want 4", got)
	}

	var sum2 float64
	for i := 0; i < n; i++ {
		x, y, _ := arr.At(i)
		sum2 += x*x + y*y
	}
	// E[x^2 + y^2] = 2 sigma^2.
	got := sum2 / n
	want := 2 * 1.5 * 1.5
	if math.Abs(got-want) > 0.1 {
		t.Errorf("mean square radius = %v, want %v", got, want)
	}

	again, err := g.Shoot(n, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("Shoot again: %v", err)
	}
	for i := 0; i < 10; i++ {
		x1, y1, _ := arr.At(i)
		x2, y2, _ := again.At(i)
		if x1 != x2 || y1 != y2 {
			t.Fatalf("photon %d differs between identical-seed shoots", i)
		}
	}
}

func TestGaussianShootInvalidCount(t *testing.T) {
	g := mustGaussian(t, 1, 1)
	if _, err := g.Shoot(0, rand.New(rand.NewSource(1))); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("Shoot(0) error = %v, want ErrDegenerateInput", err)
	}
}
