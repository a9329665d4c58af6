package ports

import (
	"context"
	"image"
)

// Segmenter separates the foreground subject from the background.
//
// Segment receives an RGBA image and returns an image of the same size whose
// alpha channel is the subject mask (0 = background, 255 = subject). The
// implementation may be backed by a local model or a remote service; callers
// must not assume it is safe for concurrent use.
type Segmenter interface {
	Segment(ctx context.Context, img image.Image) (image.Image, error)
}
