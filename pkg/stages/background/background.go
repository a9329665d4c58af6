// Package background synthesizes the gradient canvas portraits are placed on.
package background

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
)

// Stage produces gradient backgrounds. Gradients are memoized per input and
// the cached buffer is never handed out: every call returns a fresh copy the
// caller is free to draw on.
type Stage struct {
	logger ports.Logger

	mu    sync.Mutex
	cache map[pipeline.BackgroundInput]*image.NRGBA
}

// NewStage creates a new background stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{
		logger: logger.WithComponent("background"),
		cache:  make(map[pipeline.BackgroundInput]*image.NRGBA),
	}
}

// Execute returns a copy of the gradient described by input.
func (s *Stage) Execute(ctx context.Context, input pipeline.BackgroundInput) (pipeline.BackgroundResult, error) {
	if !input.Size.Valid() {
		return pipeline.BackgroundResult{}, fmt.Errorf("invalid canvas size %dx%d", input.Size.Width, input.Size.Height)
	}

	s.mu.Lock()
	gradient, ok := s.cache[input]
	if !ok {
		s.logger.Debug("Generating %dx%d gradient", input.Size.Width, input.Size.Height)
		gradient = CreateVerticalGradient(input.Size, input.Top, input.Bottom)
		s.cache[input] = gradient
	}
	s.mu.Unlock()

	return pipeline.BackgroundResult{Image: clone(gradient)}, nil
}

// CreateVerticalGradient returns an opaque image whose rows interpolate
// linearly from top (row 0) to bottom (row H-1). Channel values are
// truncated toward zero. A single-row image is filled with top.
func CreateVerticalGradient(size pipeline.Dimension, top, bottom pipeline.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
	if !size.Valid() {
		return img
	}

	for y := 0; y < size.Height; y++ {
		t := 0.0
		if size.Height > 1 {
			t = float64(y) / float64(size.Height-1)
		}
		r := lerp(top.R, bottom.R, t)
		g := lerp(top.G, bottom.G, t)
		b := lerp(top.B, bottom.B, t)

		row := img.Pix[y*img.Stride : y*img.Stride+size.Width*4]
		for x := 0; x < len(row); x += 4 {
			row[x+0] = r
			row[x+1] = g
			row[x+2] = b
			row[x+3] = 255
		}
	}
	return img
}

// lerp evaluates a*(1-t) + b*t and truncates toward zero.
func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

func clone(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	copy(dst.Pix, src.Pix)
	return dst
}
