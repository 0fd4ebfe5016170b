// Package render draws profiles onto caller-owned images, either
// deterministically (direct real-space sampling or Fourier synthesis
// through the grid pair) or stochastically (photon shooting). The
// deterministic paths evaluate the profile row-parallel across worker
// goroutines; profiles are immutable so concurrent evaluation is safe.
package render

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"galprof/pkg/geom"
	"galprof/pkg/grid"
	"galprof/pkg/image"
	"galprof/pkg/interpolant"
	"galprof/pkg/photon"
	"galprof/pkg/profile"
)

// Options controls a draw call.
type Options struct {
	// Workers is the number of goroutines evaluating rows; 0 means one
	// per CPU.
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// DrawReal samples the profile's real-space brightness at every pixel
// center of img and stores flux-per-pixel values (brightness times pixel
// area). The image's bounds center is placed at the profile origin.
func DrawReal(p profile.Profile, img *image.Image, opt Options) error {
	b := img.Bounds()
	if !b.IsDefined() {
		return fmt.Errorf("draw onto undefined bounds")
	}
	s := img.Scale()
	c := b.Center()
	area := s * s

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opt.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for iy := range rows {
				y := (float64(iy) - c.Y) * s
				for ix := b.XMin; ix <= b.XMax; ix++ {
					x := (float64(ix) - c.X) * s
					img.Set(ix, iy, p.ValueReal(geom.Position{X: x, Y: y})*area)
				}
			}
		}()
	}
	for iy := b.YMin; iy <= b.YMax; iy++ {
		rows <- iy
	}
	close(rows)
	wg.Wait()
	return nil
}

// DrawK renders the profile by Fourier synthesis: its transform is
// sampled onto a grid at the profile's own stepK, truncated at its maxK,
// inverse transformed, and interpolated onto img's pixels. This is the
// deterministic rendering path whose accuracy the profile's sampling
// parameters guarantee.
func DrawK(p profile.Profile, img *image.Image, opt Options) error {
	b := img.Bounds()
	if !b.IsDefined() {
		return fmt.Errorf("draw onto undefined bounds")
	}
	params := p.Params()
	dk := p.StepK()
	n := nextEven(int(math.Ceil(2 * p.MaxK() / dk)))
	if n < params.MinimumFFTSize {
		n = params.MinimumFFTSize
	}
	if n > params.MaximumFFTSize {
		return fmt.Errorf("synthesis needs a %d-point grid, maximum is %d: %w",
			n, params.MaximumFFTSize, profile.ErrConfigurationViolation)
	}

	kt, err := grid.NewKTable(n, dk)
	if err != nil {
		return fmt.Errorf("allocating synthesis grid: %w", err)
	}
	half := n / 2
	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < opt.workers(); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jk := range rows {
				for ik := -half; ik < half; ik++ {
					k := geom.Position{X: float64(ik) * dk, Y: float64(jk) * dk}
					kt.Set(ik, jk, p.ValueK(k))
				}
			}
		}()
	}
	for jk := -half; jk < half; jk++ {
		rows <- jk
	}
	close(rows)
	wg.Wait()

	xt := kt.InverseTransform()
	kern := &interpolant.Quintic{}
	s := img.Scale()
	c := b.Center()
	area := s * s
	for iy := b.YMin; iy <= b.YMax; iy++ {
		y := (float64(iy) - c.Y) * s
		for ix := b.XMin; ix <= b.XMax; ix++ {
			x := (float64(ix) - c.X) * s
			img.Set(ix, iy, xt.Interpolate(x, y, kern)*area)
		}
	}
	return nil
}

// DrawShoot renders by photon shooting: n photons are drawn from the
// profile through ud and accumulated into the pixels they land in.
// Photons falling off the image are lost, as off-detector flux would be.
func DrawShoot(p profile.Profile, img *image.Image, n int, ud photon.Deviate) error {
	arr, err := p.Shoot(n, ud)
	if err != nil {
		return err
	}
	b := img.Bounds()
	s := img.Scale()
	c := b.Center()
	for i := 0; i < arr.Len(); i++ {
		x, y, f := arr.At(i)
		ix := int(math.Round(x/s + c.X))
		iy := int(math.Round(y/s + c.Y))
		img.AddAt(ix, iy, f)
	}
	return nil
}

func nextEven(n int) int {
	if n < 2 {
		return 2
	}
	if n%2 == 1 {
		n++
	}
	return n
}
