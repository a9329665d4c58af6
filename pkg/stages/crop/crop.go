// Package crop implements the half-body cropping stage.
package crop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
)

// ErrNoSubjectDetected is returned when the alpha channel has no opaque pixel.
var ErrNoSubjectDetected = errors.New("no subject detected")

// Stage crops segmented images to the head and upper torso.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new crop stage.
func NewStage(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("crop"),
	}
}

// Execute crops the input to the top Ratio of its subject bounding box.
func (s *Stage) Execute(ctx context.Context, input pipeline.CropInput) (pipeline.CropResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.CropResult{}, err
	}

	cropped, box, err := CropHalfBody(input.Image, input.Ratio)
	if err != nil {
		return pipeline.CropResult{}, err
	}
	s.logger.Debug("Subject bounds for %s: (%d,%d)-(%d,%d), cropped to %dx%d",
		input.Name, box.X1, box.Y1, box.X2, box.Y2, cropped.Bounds().Dx(), cropped.Bounds().Dy())

	if s.sink.Enabled() {
		if err := s.sink.SaveCropped(input.Name, cropped); err != nil {
			s.logger.Warn("Failed to save debug output: %s", err)
		}
	}

	return pipeline.CropResult{Image: cropped, Box: box}, nil
}

// AlphaBounds returns the minimal box enclosing every pixel with alpha > 0,
// relative to the image origin. ok is false when every pixel is transparent.
func AlphaBounds(img image.Image) (box pipeline.BoundingBox, ok bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	mark := func(x, y int) {
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := b.Min.X; x < b.Max.X; x++ {
				if row[(x-b.Min.X)*4+3] > 0 {
					mark(x, y)
				}
			}
		}
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, y):]
			for x := b.Min.X; x < b.Max.X; x++ {
				if row[(x-b.Min.X)*4+3] > 0 {
					mark(x, y)
				}
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
					mark(x, y)
				}
			}
		}
	}

	if maxX < minX || maxY < minY {
		return pipeline.BoundingBox{}, false
	}
	return pipeline.BoundingBox{
		X1: minX - b.Min.X,
		Y1: minY - b.Min.Y,
		X2: maxX - b.Min.X + 1,
		Y2: maxY - b.Min.Y + 1,
	}, true
}

// CropHalfBody keeps the top ratio of the subject's bounding box height.
// The result is a new image with bounds starting at (0,0); alpha is preserved.
func CropHalfBody(img image.Image, ratio float64) (*image.NRGBA, pipeline.BoundingBox, error) {
	box, ok := AlphaBounds(img)
	if !ok {
		return nil, pipeline.BoundingBox{}, ErrNoSubjectDetected
	}

	newY2 := box.Y1 + int(math.Floor(float64(box.Height())*ratio))
	if newY2 <= box.Y1 {
		return nil, box, fmt.Errorf("%w: subject is %d px tall", ErrNoSubjectDetected, box.Height())
	}
	if newY2 > box.Y2 {
		newY2 = box.Y2
	}

	half := box
	half.Y2 = newY2
	return imaging.Crop(img, half.Rect().Add(img.Bounds().Min)), box, nil
}
