// Package config provides scene configuration for the galprof command
// line renderer. It handles loading configuration from YAML files and
// provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"galprof/pkg/profile"
)

// Config describes a render scene loaded from YAML: the source profile,
// an optional point spread function it is convolved with, the output
// pixel grid, and the draw method.
type Config struct {
	// Galaxy is the source being rendered.
	Galaxy struct {
		// Sigma is the Gaussian scale radius in physical units.
		Sigma float64 `yaml:"sigma"`

		// Flux is the total flux.
		Flux float64 `yaml:"flux"`

		// Dilation magnifies the source while preserving flux; 0 or 1
		// means none.
		Dilation float64 `yaml:"dilation"`

		// ShiftX and ShiftY move the source off the image center.
		ShiftX float64 `yaml:"shiftX"`
		ShiftY float64 `yaml:"shiftY"`
	} `yaml:"galaxy"`

	// PSF is the point spread function; Sigma 0 disables convolution.
	PSF struct {
		Sigma float64 `yaml:"sigma"`
	} `yaml:"psf"`

	// Image describes the output pixel grid.
	Image struct {
		// Size is the image width and height in pixels.
		Size int `yaml:"size"`

		// Scale is the physical width of one pixel.
		Scale float64 `yaml:"scale"`
	} `yaml:"image"`

	// Draw selects and tunes the rendering path.
	Draw struct {
		// Method is one of "real", "fourier" or "photon".
		Method string `yaml:"method"`

		// Photons is the shot count for the photon method.
		Photons int `yaml:"photons"`

		// Seed fixes the photon random stream.
		Seed int64 `yaml:"seed"`

		// Workers is the number of evaluation goroutines.
		Workers int `yaml:"workers"`
	} `yaml:"draw"`

	// ParamsFile optionally points at a tolerance bundle to load; empty
	// means defaults.
	ParamsFile string `yaml:"paramsFile"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Galaxy.Sigma = 2.0
	cfg.Galaxy.Flux = 1.0
	cfg.Galaxy.Dilation = 1.0

	cfg.PSF.Sigma = 0.8

	cfg.Image.Size = 64
	cfg.Image.Scale = 0.25

	cfg.Draw.Method = "fourier"
	cfg.Draw.Photons = 100000
	cfg.Draw.Seed = 1
	cfg.Draw.Workers = runtime.NumCPU()

	return cfg
}

// Validate checks the scene for values no renderer can honor.
func (c *Config) Validate() error {
	if c.Galaxy.Sigma <= 0 {
		return fmt.Errorf("galaxy sigma %v must be positive", c.Galaxy.Sigma)
	}
	if c.PSF.Sigma < 0 {
		return fmt.Errorf("psf sigma %v must be non-negative", c.PSF.Sigma)
	}
	if c.Image.Size <= 0 || c.Image.Scale <= 0 {
		return fmt.Errorf("image %dx%d at scale %v is empty", c.Image.Size, c.Image.Size, c.Image.Scale)
	}
	switch c.Draw.Method {
	case "real", "fourier", "photon":
	default:
		return fmt.Errorf("unknown draw method %q", c.Draw.Method)
	}
	if c.Draw.Method == "photon" && c.Draw.Photons <= 0 {
		return fmt.Errorf("photon draw with %d photons", c.Draw.Photons)
	}
	return nil
}

// Params resolves the tolerance bundle the scene asks for.
func (c *Config) Params() (profile.GSParams, error) {
	if c.ParamsFile == "" {
		return profile.DefaultGSParams(), nil
	}
	return profile.LoadGSParams(c.ParamsFile)
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}
