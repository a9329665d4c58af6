package mocks

import (
	"context"
	"image"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/user/portrait/pkg/ports"
)

// Segmenter is a mock implementation of ports.Segmenter.
// Without SegmentFunc it returns an opaque copy of the input.
type Segmenter struct {
	SegmentFunc func(ctx context.Context, img image.Image) (image.Image, error)

	calls atomic.Int64
}

func (m *Segmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	m.calls.Add(1)
	if m.SegmentFunc != nil {
		return m.SegmentFunc(ctx, img)
	}
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out, nil
}

// Calls returns how many times Segment was invoked.
func (m *Segmenter) Calls() int64 {
	return m.calls.Load()
}

// NewRectSegmenter returns a Segmenter whose mask is opaque inside subject
// (in image coordinates) and transparent elsewhere.
func NewRectSegmenter(subject image.Rectangle) *Segmenter {
	return &Segmenter{
		SegmentFunc: func(ctx context.Context, img image.Image) (image.Image, error) {
			return ApplyMask(img, func(x, y int) uint8 {
				if image.Pt(x, y).In(subject) {
					return 255
				}
				return 0
			}), nil
		},
	}
}

// ApplyMask copies img and replaces its alpha with mask(x, y).
func ApplyMask(img image.Image, mask func(x, y int) uint8) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := out.NRGBAAt(x, y)
			c.A = mask(x, y)
			out.SetNRGBA(x, y, c)
		}
	}
	return out
}

var _ ports.Segmenter = (*Segmenter)(nil)
