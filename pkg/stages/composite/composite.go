// Package composite implements the placement and compositing stage.
package composite

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"

	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
)

// Stage scales a foreground crop onto a background canvas.
type Stage struct {
	renderer ports.Renderer
	sink     ports.DebugSink
	logger   ports.Logger
}

// NewStage creates a new composite stage.
func NewStage(renderer ports.Renderer, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		renderer: renderer,
		sink:     sink,
		logger:   logger.WithComponent("composite"),
	}
}

// Execute resizes the foreground, positions it and pastes it onto a new
// canvas initialised from the background.
func (s *Stage) Execute(ctx context.Context, input pipeline.CompositeInput) (pipeline.CompositeResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.CompositeResult{}, err
	}
	if input.Foreground == nil || input.Background == nil {
		return pipeline.CompositeResult{}, fmt.Errorf("foreground and background are required")
	}

	fgSize := pipeline.DimensionOf(input.Foreground)
	bgSize := pipeline.DimensionOf(input.Background)
	if !fgSize.Valid() {
		return pipeline.CompositeResult{}, fmt.Errorf("empty foreground")
	}

	scaled, placement := ResizeAndCenter(s.renderer, input.Foreground, bgSize, input.Geometry)
	s.logger.Debug("Placing %s: scale %.4f, %dx%d at (%d,%d)",
		input.Name, placement.Scale, placement.Size.Width, placement.Size.Height, placement.Offset.X, placement.Offset.Y)

	if s.sink.Enabled() {
		if data, err := json.MarshalIndent(placement, "", "  "); err == nil {
			if err := s.sink.SavePlacement(input.Name, data); err != nil {
				s.logger.Warn("Failed to save debug output: %s", err)
			}
		}
	}

	canvas := s.renderer.NewCanvas(input.Background)
	if w, h := canvas.Size(); w != bgSize.Width || h != bgSize.Height {
		return pipeline.CompositeResult{}, fmt.Errorf("canvas is %dx%d, background is %dx%d", w, h, bgSize.Width, bgSize.Height)
	}
	return pipeline.CompositeResult{
		Image:     Composite(canvas, scaled, placement.Offset),
		Placement: placement,
	}, nil
}

// ComputePlacement fits fg inside MaxWidthRatio x MaxHeightRatio of the
// canvas, preserving aspect ratio. Smaller foregrounds are scaled up.
// The scaled size is truncated, the horizontal offset centres the result
// (floor division) and the vertical offset is a fixed fraction of the
// canvas height regardless of the foreground height.
func ComputePlacement(fg, canvas pipeline.Dimension, g pipeline.Geometry) pipeline.Placement {
	scale := math.Min(
		float64(canvas.Width)*g.MaxWidthRatio/float64(fg.Width),
		float64(canvas.Height)*g.MaxHeightRatio/float64(fg.Height),
	)

	size := pipeline.Dimension{
		Width:  max(1, int(float64(fg.Width)*scale)),
		Height: max(1, int(float64(fg.Height)*scale)),
	}

	return pipeline.Placement{
		Scale: scale,
		Size:  size,
		Offset: image.Point{
			X: floorDiv(canvas.Width-size.Width, 2),
			Y: int(math.Floor(float64(canvas.Height) * g.TopOffsetRatio)),
		},
	}
}

// ResizeAndCenter resamples fg to its placement size. It does not composite.
func ResizeAndCenter(r ports.Renderer, fg image.Image, canvas pipeline.Dimension, g pipeline.Geometry) (image.Image, pipeline.Placement) {
	placement := ComputePlacement(pipeline.DimensionOf(fg), canvas, g)
	return r.ResizeImage(fg, placement.Size.Width, placement.Size.Height), placement
}

// Composite pastes fg onto canvas at pos using fg's alpha as the mask and
// returns the canvas image. Pixels outside fg's footprint are untouched.
func Composite(canvas ports.Canvas, fg image.Image, pos image.Point) image.Image {
	canvas.DrawImage(fg, pos.X, pos.Y)
	return canvas.ToImage()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
