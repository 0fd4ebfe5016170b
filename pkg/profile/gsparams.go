package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GSParams bundles the numeric tolerances that drive every adaptive
// discretization choice in the engine. A GSParams value is attached to a
// profile at construction and never changes afterwards; composed profiles
// inherit the tolerances of their children (tightest-wins when children
// disagree).
type GSParams struct {
	// FoldingThreshold is the fraction of flux allowed to alias ("fold")
	// across the real-space grid edge; it sets stepK.
	FoldingThreshold float64 `yaml:"foldingThreshold"`

	// MaxKThreshold is the fraction of peak Fourier amplitude below which
	// a profile's power is treated as negligible; it sets maxK.
	MaxKThreshold float64 `yaml:"maxkThreshold"`

	// KValueAccuracy bounds the error tolerated in interpolated Fourier
	// values, and sets how far an interpolant's own transform is trusted.
	KValueAccuracy float64 `yaml:"kvalueAccuracy"`

	// XValueAccuracy bounds the error tolerated in interpolated
	// real-space values.
	XValueAccuracy float64 `yaml:"xvalueAccuracy"`

	// MinimumFFTSize and MaximumFFTSize bound the dense grid dimension.
	// Requests above the maximum are refused, never truncated.
	MinimumFFTSize int `yaml:"minimumFFTSize"`
	MaximumFFTSize int `yaml:"maximumFFTSize"`

	// PadFactor is the zero-padding ratio applied when an image is
	// transformed, controlling the Fourier-grid resolution.
	PadFactor int `yaml:"padFactor"`

	// MaxIterations caps iterative refinement searches before they report
	// non-convergence. The built-in searches are single-pass scans over
	// bounded data, so they terminate regardless; the cap binds solvers
	// that iterate.
	MaxIterations int `yaml:"maxIterations"`
}

// DefaultGSParams returns the engine's default tolerances.
func DefaultGSParams() GSParams {
	return GSParams{
		FoldingThreshold: 5e-3,
		MaxKThreshold:    1e-3,
		KValueAccuracy:   1e-5,
		XValueAccuracy:   1e-5,
		MinimumFFTSize:   64,
		MaximumFFTSize:   8192,
		PadFactor:        4,
		MaxIterations:    64,
	}
}

// Validate reports the first malformed tolerance, if any.
func (p GSParams) Validate() error {
	check := func(name string, v float64) error {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%w: %s=%v outside (0, 1)", ErrConfigurationViolation, name, v)
		}
		return nil
	}
	if err := check("foldingThreshold", p.FoldingThreshold); err != nil {
		return err
	}
	if err := check("maxkThreshold", p.MaxKThreshold); err != nil {
		return err
	}
	if err := check("kvalueAccuracy", p.KValueAccuracy); err != nil {
		return err
	}
	if err := check("xvalueAccuracy", p.XValueAccuracy); err != nil {
		return err
	}
	if p.MinimumFFTSize < 2 || p.MaximumFFTSize < p.MinimumFFTSize {
		return fmt.Errorf("%w: FFT size range [%d, %d] is invalid",
			ErrConfigurationViolation, p.MinimumFFTSize, p.MaximumFFTSize)
	}
	if p.PadFactor < 1 {
		return fmt.Errorf("%w: padFactor=%d must be at least 1",
			ErrConfigurationViolation, p.PadFactor)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: maxIterations=%d must be at least 1",
			ErrConfigurationViolation, p.MaxIterations)
	}
	return nil
}

// LoadGSParams reads tolerances from a YAML file, filling unset fields
// from the defaults. A missing file yields the defaults.
func LoadGSParams(path string) (GSParams, error) {
	p := DefaultGSParams()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("error reading params file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("error parsing params file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// SaveGSParams writes tolerances to a YAML file, creating the directory
// if needed.
func SaveGSParams(p GSParams, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating params directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("error marshaling params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing params file: %w", err)
	}
	return nil
}
