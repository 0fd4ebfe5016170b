package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"galprof/pkg/config"
	"galprof/pkg/geom"
	"galprof/pkg/image"
	"galprof/pkg/profile"
	"galprof/pkg/render"
	"galprof/pkg/visualization"
)

func main() {
	configPath := flag.String("config", "", "Scene configuration YAML (missing file selects defaults)")
	outputName := flag.String("output", "galprof.png", "Output PNG filename")
	method := flag.String("method", "", "Override draw method: real, fourier or photon")
	writeConfig := flag.Bool("write-config", false, "Write the effective configuration next to the output and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *method != "" {
		cfg.Draw.Method = *method
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
	}
	if *writeConfig {
		path := *outputName + ".yaml"
		if err := config.SaveConfig(cfg, path); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Configuration written to: %s\n", path)
		return
	}

	params, err := cfg.Params()
	if err != nil {
		log.Fatalf("Failed to load rendering parameters: %v", err)
	}

	src, err := buildScene(cfg, params)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}

	half := cfg.Image.Size / 2
	img, err := image.New(geom.NewBounds(-half, cfg.Image.Size-1-half, -half, cfg.Image.Size-1-half), cfg.Image.Scale)
	if err != nil {
		log.Fatalf("Failed to allocate image: %v", err)
	}

	fmt.Printf("Rendering %dx%d image at scale %g via %s draw...\n",
		cfg.Image.Size, cfg.Image.Size, cfg.Image.Scale, cfg.Draw.Method)
	startTime := time.Now()
	opt := render.Options{Workers: cfg.Draw.Workers}
	switch cfg.Draw.Method {
	case "real":
		err = render.DrawReal(src, img, opt)
	case "fourier":
		err = render.DrawK(src, img, opt)
	case "photon":
		err = render.DrawShoot(src, img, cfg.Draw.Photons, rand.New(rand.NewSource(cfg.Draw.Seed)))
	}
	if err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	elapsed := time.Since(startTime)

	if err := visualization.WritePNG(img, *outputName); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	centroid := img.Centroid()
	fmt.Printf("Rendered in %.3f seconds\n", elapsed.Seconds())
	fmt.Printf("Output image saved to: %s\n\n", *outputName)
	fmt.Printf("Scene summary:\n")
	fmt.Printf("  profile flux:     %.6g\n", src.Flux())
	fmt.Printf("  collected flux:   %.6g\n", img.Sum())
	fmt.Printf("  image centroid:   (%.4g, %.4g) px\n", centroid.X, centroid.Y)
	fmt.Printf("  stepK:            %.6g\n", src.StepK())
	fmt.Printf("  maxK:             %.6g\n", src.MaxK())
}

// buildScene assembles the configured profile: a Gaussian source,
// optionally dilated and shifted, convolved with a Gaussian PSF when one
// is configured.
func buildScene(cfg *config.Config, params profile.GSParams) (profile.Profile, error) {
	var src profile.Profile
	src, err := profile.NewGaussian(cfg.Galaxy.Sigma, cfg.Galaxy.Flux, params)
	if err != nil {
		return nil, fmt.Errorf("building galaxy: %w", err)
	}
	if d := cfg.Galaxy.Dilation; d > 0 && d != 1 {
		src, err = profile.Dilate(src, d)
		if err != nil {
			return nil, fmt.Errorf("dilating galaxy: %w", err)
		}
	}
	if cfg.Galaxy.ShiftX != 0 || cfg.Galaxy.ShiftY != 0 {
		src, err = profile.Shift(src, cfg.Galaxy.ShiftX, cfg.Galaxy.ShiftY)
		if err != nil {
			return nil, fmt.Errorf("shifting galaxy: %w", err)
		}
	}
	if cfg.PSF.Sigma > 0 {
		psf, err := profile.NewGaussian(cfg.PSF.Sigma, 1, params)
		if err != nil {
			return nil, fmt.Errorf("building psf: %w", err)
		}
		src, err = profile.NewConvolve(src, psf)
		if err != nil {
			return nil, fmt.Errorf("convolving with psf: %w", err)
		}
	}
	return src, nil
}
