// Package ggrenderer provides a renderer implementation using the gg library
// for canvases and imaging for codecs and resampling.
package ggrenderer

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/user/portrait/pkg/ports"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithAutoOrientation applies the EXIF orientation tag when decoding JPEGs.
func WithAutoOrientation(enabled bool) Option {
	return func(r *Renderer) {
		r.autoOrient = enabled
	}
}

// Renderer implements ports.Renderer.
type Renderer struct {
	autoOrient bool
	filter     imaging.ResampleFilter
}

// New creates a new Renderer that resamples with a Lanczos filter.
func New(opts ...Option) *Renderer {
	r := &Renderer{filter: imaging.Lanczos}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewCanvas creates a canvas holding a copy of bg.
func (r *Renderer) NewCanvas(bg image.Image) ports.Canvas {
	dc := gg.NewContextForImage(bg)
	return &Canvas{dc: dc, im: dc.Image().(*image.RGBA)}
}

// DecodeImage decodes JPEG, PNG or WebP data.
func (r *Renderer) DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(r.autoOrient))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeImage encodes an image to the specified format.
func (r *Renderer) EncodeImage(img image.Image, format ports.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case ports.FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, fmt.Errorf("encode PNG: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %d", format)
	}

	return buf.Bytes(), nil
}

// ResizeImage resamples an image to the specified dimensions.
func (r *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	return imaging.Resize(img, width, height, r.filter)
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)

// Canvas implements ports.Canvas using gg.Context.
type Canvas struct {
	dc *gg.Context
	im *image.RGBA
}

// DrawImage blends img over the canvas with its top-left corner at (x, y).
// The destination is opaque, so the result is fg*a + bg*(1-a).
func (c *Canvas) DrawImage(img image.Image, x, y int) {
	sb := img.Bounds()
	dr := image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+sb.Dx(), y+sb.Dy())}
	draw.Draw(c.im, dr, img, sb.Min, draw.Over)
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

// ToImage returns the canvas as an image.Image.
func (c *Canvas) ToImage() image.Image {
	return c.dc.Image()
}

// Ensure Canvas implements ports.Canvas
var _ ports.Canvas = (*Canvas)(nil)
