package photon

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func uniformArray(n int, flux float64) *Array {
	a := NewArray(n)
	for i := 0; i < n; i++ {
		a.Set(i, float64(i), float64(-i), flux/float64(n))
	}
	return a
}

func TestTotalFlux(t *testing.T) {
	a := uniformArray(10, 5)
	if got := a.TotalFlux(); math.Abs(got-5) > 1e-12 {
		t.Errorf("TotalFlux = %v, want 5", got)
	}
	a.ScaleFlux(2)
	if got := a.TotalFlux(); math.Abs(got-10) > 1e-12 {
		t.Errorf("TotalFlux after scale = %v, want 10", got)
	}
}

func TestTranslate(t *testing.T) {
	a := uniformArray(3, 1)
	a.Translate(2, -1)
	x, y, _ := a.At(1)
	if x != 3 || y != -2 {
		t.Errorf("photon 1 at (%v, %v) after translate, want (3, -2)", x, y)
	}
}

// TestConvolveShuffleLength checks the output length rule: the longer
// operand wins, in either order.
func TestConvolveShuffleLength(t *testing.T) {
	a := uniformArray(100, 2)
	b := uniformArray(30, 3)

	out, err := a.ConvolveShuffle(b, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("ConvolveShuffle: %v", err)
	}
	if out.Len() != 100 {
		t.Errorf("output length = %d, want 100", out.Len())
	}

	out, err = b.ConvolveShuffle(a, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("ConvolveShuffle reversed: %v", err)
	}
	if out.Len() != 100 {
		t.Errorf("reversed output length = %d, want 100", out.Len())
	}
}

// TestConvolveShuffleFlux checks the product-normalized total flux.
func TestConvolveShuffleFlux(t *testing.T) {
	a := uniformArray(64, 2)
	b := uniformArray(48, -1.5)

	out, err := a.ConvolveShuffle(b, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("ConvolveShuffle: %v", err)
	}
	want := a.TotalFlux() * b.TotalFlux()
	if got := out.TotalFlux(); math.Abs(got-want) > 1e-10*math.Abs(want) {
		t.Errorf("output flux = %v, want %v", got, want)
	}
}

// TestConvolveShuffleDeterministic verifies a fixed-seed deviate stream
// reproduces identical photons.
func TestConvolveShuffleDeterministic(t *testing.T) {
	run := func() *Array {
		a := uniformArray(50, 1)
		b := uniformArray(20, 1)
		out, err := a.ConvolveShuffle(b, rand.New(rand.NewSource(99)))
		if err != nil {
			t.Fatalf("ConvolveShuffle: %v", err)
		}
		return out
	}
	first := run()
	second := run()
	for i := 0; i < first.Len(); i++ {
		x1, y1, f1 := first.At(i)
		x2, y2, f2 := second.At(i)
		if x1 != x2 || y1 != y2 || f1 != f2 {
			t.Fatalf("photon %d differs between identical-seed runs", i)
		}
	}
}

// TestConvolveShufflePositionsAdd verifies output positions are pairwise
// sums: convolving with a single displaced photon shifts every photon by
// that displacement.
func TestConvolveShufflePositionsAdd(t *testing.T) {
	a := uniformArray(10, 1)
	b := NewArray(1)
	b.Set(0, 5, -3, 1)

	out, err := a.ConvolveShuffle(b, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("ConvolveShuffle: %v", err)
	}
	for i := 0; i < out.Len(); i++ {
		ax, ay, _ := a.At(i)
		x, y, _ := out.At(i)
		if x != ax+5 || y != ay-3 {
			t.Errorf("photon %d at (%v, %v), want (%v, %v)", i, x, y, ax+5, ay-3)
		}
	}
}

func TestConvolveShuffleZeroLength(t *testing.T) {
	a := uniformArray(10, 1)
	empty := NewArray(0)
	if _, err := a.ConvolveShuffle(empty, rand.New(rand.NewSource(1))); !errors.Is(err, ErrMismatchedLength) {
		t.Errorf("error = %v, want ErrMismatchedLength", err)
	}
	if _, err := empty.ConvolveShuffle(a, rand.New(rand.NewSource(1))); !errors.Is(err, ErrMismatchedLength) {
		t.Errorf("reversed error = %v, want ErrMismatchedLength", err)
	}
}
