// Package visualization exports rendered flux images to ordinary image
// files for inspection. Pixel values are normalized over the image range
// before quantization, so relative structure survives any flux scale.
package visualization

import (
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"galprof/pkg/image"
)

// WritePNG saves img as a 16-bit grayscale PNG. Values are mapped
// linearly from [min, max] over the image onto the gray range; a flat
// image comes out black.
func WritePNG(img *image.Image, path string) error {
	b := img.Bounds()
	if !b.IsDefined() {
		return fmt.Errorf("export of undefined bounds")
	}

	lo := math.Inf(1)
	hi := math.Inf(-1)
	for iy := b.YMin; iy <= b.YMax; iy++ {
		for ix := b.XMin; ix <= b.XMax; ix++ {
			v := img.At(ix, iy)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	span := hi - lo
	if span <= 0 {
		span = 1
	}

	out := stdimage.NewGray16(stdimage.Rect(0, 0, b.Width(), b.Height()))
	for iy := b.YMin; iy <= b.YMax; iy++ {
		for ix := b.XMin; ix <= b.XMax; ix++ {
			norm := (img.At(ix, iy) - lo) / span
			value := uint16(math.Max(0, math.Min(65535, norm*65535)))
			// Astronomical convention: y grows upward, PNG rows grow
			// downward.
			out.SetGray16(ix-b.XMin, b.YMax-iy, color.Gray16{Y: value})
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("error encoding png: %w", err)
	}
	return f.Close()
}
