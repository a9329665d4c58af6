// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/user/portrait/pkg/orchestrator"
	"github.com/user/portrait/pkg/pipeline"
)

// Segmenter kinds.
const (
	SegmenterONNX = "onnx"
	SegmenterHTTP = "http"
)

// Config represents the full configuration for portrait.
type Config struct {
	// Canvas
	CanvasWidth  int    `yaml:"canvas_width"`
	CanvasHeight int    `yaml:"canvas_height"`
	TopColor     string `yaml:"top_color"`
	BottomColor  string `yaml:"bottom_color"`

	// Geometry
	HalfBodyRatio  float64 `yaml:"half_body_ratio"`
	MaxWidthRatio  float64 `yaml:"max_width_ratio"`
	MaxHeightRatio float64 `yaml:"max_height_ratio"`
	TopOffsetRatio float64 `yaml:"top_offset_ratio"`

	// Processing
	Workers    int  `yaml:"workers"`
	AutoOrient bool `yaml:"auto_orient"`

	// Segmentation
	Segmenter SegmenterConfig `yaml:"segmenter"`

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// SegmenterConfig selects and configures the background remover.
type SegmenterConfig struct {
	Kind          string        `yaml:"kind"`
	ModelPath     string        `yaml:"model"`
	LibraryPath   string        `yaml:"ort_lib"`
	Endpoint      string        `yaml:"endpoint"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		// Canvas
		CanvasWidth:  pipeline.DefaultCanvas.Width,
		CanvasHeight: pipeline.DefaultCanvas.Height,
		TopColor:     FormatColor(pipeline.TopColor),
		BottomColor:  FormatColor(pipeline.BottomColor),

		// Geometry
		HalfBodyRatio:  0.7,
		MaxWidthRatio:  0.75,
		MaxHeightRatio: 0.85,
		TopOffsetRatio: 0.2,

		// Processing
		Workers:    runtime.NumCPU(),
		AutoOrient: true,

		// Segmentation
		Segmenter: SegmenterConfig{
			Kind:          SegmenterONNX,
			ModelPath:     "u2net.onnx",
			Endpoint:      "http://localhost:7000/api/remove",
			Timeout:       60 * time.Second,
			MaxConcurrent: 1,
		},

		// Debug
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %dx%d", c.CanvasWidth, c.CanvasHeight))
	}
	if _, err := ParseColor(c.TopColor); err != nil {
		errs = append(errs, fmt.Errorf("top_color: %w", err))
	}
	if _, err := ParseColor(c.BottomColor); err != nil {
		errs = append(errs, fmt.Errorf("bottom_color: %w", err))
	}
	for name, v := range map[string]float64{
		"half_body_ratio":  c.HalfBodyRatio,
		"max_width_ratio":  c.MaxWidthRatio,
		"max_height_ratio": c.MaxHeightRatio,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in (0, 1], got %g", name, v))
		}
	}
	if c.TopOffsetRatio < 0 || c.TopOffsetRatio >= 1 {
		errs = append(errs, fmt.Errorf("top_offset_ratio must be in [0, 1), got %g", c.TopOffsetRatio))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}

	switch c.Segmenter.Kind {
	case SegmenterONNX:
		if c.Segmenter.ModelPath == "" {
			errs = append(errs, errors.New("segmenter.model is required for the onnx segmenter"))
		}
	case SegmenterHTTP:
		if c.Segmenter.Endpoint == "" {
			errs = append(errs, errors.New("segmenter.endpoint is required for the http segmenter"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown segmenter kind %q", c.Segmenter.Kind))
	}
	if c.Segmenter.Timeout < 0 {
		errs = append(errs, fmt.Errorf("segmenter.timeout must not be negative, got %s", c.Segmenter.Timeout))
	}

	return errors.Join(errs...)
}

// ParseColor parses "#rrggbb" or "rrggbb" (case-insensitive).
func ParseColor(hex string) (pipeline.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return pipeline.Color{}, fmt.Errorf("invalid color %q: want #rrggbb", hex)
	}

	var rgb [3]uint8
	for i := range rgb {
		hi, ok1 := hexValue(s[2*i])
		lo, ok2 := hexValue(s[2*i+1])
		if !ok1 || !ok2 {
			return pipeline.Color{}, fmt.Errorf("invalid color %q: bad hex digit", hex)
		}
		rgb[i] = hi<<4 | lo
	}
	return pipeline.Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c pipeline.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func hexValue(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	default:
		return 0, false
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
// Call Validate first; unparseable colors fall back to the defaults.
func (c Config) ToOrchestratorConfig(inputDir, outputDir string) orchestrator.Config {
	top, err := ParseColor(c.TopColor)
	if err != nil {
		top = pipeline.TopColor
	}
	bottom, err := ParseColor(c.BottomColor)
	if err != nil {
		bottom = pipeline.BottomColor
	}

	return orchestrator.Config{
		InputDir:  inputDir,
		OutputDir: outputDir,

		Canvas:      pipeline.Dimension{Width: c.CanvasWidth, Height: c.CanvasHeight},
		TopColor:    top,
		BottomColor: bottom,

		Geometry: pipeline.Geometry{
			HalfBodyRatio:  c.HalfBodyRatio,
			MaxWidthRatio:  c.MaxWidthRatio,
			MaxHeightRatio: c.MaxHeightRatio,
			TopOffsetRatio: c.TopOffsetRatio,
		},

		Workers: c.Workers,
	}
}
