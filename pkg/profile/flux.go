package profile

import (
	"fmt"
	"math"
	"sort"

	"galprof/pkg/geom"
	"galprof/pkg/image"
)

// CalculateSizeContainingFlux finds the smallest radius about the image
// centroid whose enclosed flux reaches fraction of the image's total
// flux, in physical units (pixel radius times scale).
//
// Containment is defined by the running total accumulated in radius
// order, not by absolute values: pixels are visited from the centroid
// outward and the first radius at which the signed running sum reaches
// the target wins. Signed images are accepted as long as the total is
// positive; a non-positive total has no containment radius and is
// refused.
func CalculateSizeContainingFlux(img *image.Image, fraction float64) (float64, error) {
	return sizeContainingFlux(img, img.Bounds(), fraction)
}

func sizeContainingFlux(img *image.Image, bounds geom.Bounds, fraction float64) (float64, error) {
	if !bounds.IsDefined() {
		return 0, fmt.Errorf("flux containment over empty bounds: %w", ErrDegenerateInput)
	}
	if fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("flux containment fraction %v outside (0, 1]: %w",
			fraction, ErrConfigurationViolation)
	}

	type pix struct {
		r float64
		f float64
	}
	pixels := make([]pix, 0, bounds.Area())
	var total float64
	c := centroidOver(img, bounds)
	for iy := bounds.YMin; iy <= bounds.YMax; iy++ {
		for ix := bounds.XMin; ix <= bounds.XMax; ix++ {
			f := img.At(ix, iy)
			total += f
			pixels = append(pixels, pix{
				r: math.Hypot(float64(ix)-c.X, float64(iy)-c.Y),
				f: f,
			})
		}
	}
	if total <= 0 {
		return 0, fmt.Errorf("flux containment with total flux %v: %w", total, ErrDegenerateInput)
	}

	sort.Slice(pixels, func(i, j int) bool { return pixels[i].r < pixels[j].r })

	// Back the target off by a relative epsilon so fraction == 1 is
	// reachable despite floating accumulation order.
	target := fraction * total * (1 - 1e-12)
	var running float64
	for _, p := range pixels {
		running += p.f
		if running >= target {
			return p.r * img.Scale(), nil
		}
	}
	return 0, fmt.Errorf("flux containment never reached %v of %v: %w",
		fraction, total, ErrSearchDidNotConverge)
}

// centroidOver is the signed first moment of the samples inside bounds,
// in pixel index coordinates; the bounds center when the moment is
// undefined.
func centroidOver(img *image.Image, bounds geom.Bounds) geom.Position {
	var sx, sy, total float64
	for iy := bounds.YMin; iy <= bounds.YMax; iy++ {
		for ix := bounds.XMin; ix <= bounds.XMax; ix++ {
			f := img.At(ix, iy)
			sx += f * float64(ix)
			sy += f * float64(iy)
			total += f
		}
	}
	if total == 0 {
		return bounds.Center()
	}
	return geom.Position{X: sx / total, Y: sy / total}
}
