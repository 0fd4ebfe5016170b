package visualization

import (
	stdimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"galprof/pkg/geom"
	"galprof/pkg/image"
)

func TestWritePNG(t *testing.T) {
	img, err := image.New(geom.NewBounds(-4, 4, -4, 4), 1)
	if err != nil {
		t.Fatalf("image.New: %v", err)
	}
	for iy := -4; iy <= 4; iy++ {
		for ix := -4; ix <= 4; ix++ {
			img.Set(ix, iy, float64(ix*ix+iy*iy))
		}
	}
	img.Set(0, 0, -1) // below zero: normalization must absorb it

	path := filepath.Join(t.TempDir(), "out", "test.png")
	if err := WritePNG(img, path); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got, want := decoded.Bounds(), stdimage.Rect(0, 0, 9, 9); got != want {
		t.Errorf("decoded bounds = %v, want %v", got, want)
	}

	// The minimum pixel maps to black, the corner maxima to white.
	gray, ok := decoded.(*stdimage.Gray16)
	if !ok {
		t.Fatalf("decoded type %T, want *image.Gray16", decoded)
	}
	if v := gray.Gray16At(4, 4); v.Y != 0 {
		t.Errorf("center = %d, want 0", v.Y)
	}
	if v := gray.Gray16At(0, 0); v.Y != 65535 {
		t.Errorf("corner = %d, want 65535", v.Y)
	}
}

func TestWritePNGFlat(t *testing.T) {
	img, err := image.New(geom.NewBounds(0, 3, 0, 3), 1)
	if err != nil {
		t.Fatalf("image.New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "flat.png")
	if err := WritePNG(img, path); err != nil {
		t.Fatalf("WritePNG flat: %v", err)
	}
}
