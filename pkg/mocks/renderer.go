package mocks

import (
	"image"
	"image/draw"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/user/portrait/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	NewCanvasFunc   func(bg image.Image) ports.Canvas
	DecodeImageFunc func(data []byte) (image.Image, error)
	EncodeImageFunc func(img image.Image, format ports.ImageFormat) ([]byte, error)
	ResizeImageFunc func(img image.Image, width, height int) image.Image

	mu      sync.Mutex
	encoded []image.Image
}

func (m *Renderer) NewCanvas(bg image.Image) ports.Canvas {
	if m.NewCanvasFunc != nil {
		return m.NewCanvasFunc(bg)
	}
	return &Canvas{img: imaging.Clone(bg)}
}

func (m *Renderer) DecodeImage(data []byte) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data)
	}
	return image.NewNRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat) ([]byte, error) {
	m.mu.Lock()
	m.encoded = append(m.encoded, img)
	m.mu.Unlock()
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format)
	}
	return []byte(format.String()), nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}

// Encoded returns every image passed to EncodeImage.
func (m *Renderer) Encoded() []image.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]image.Image(nil), m.encoded...)
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas backed by an NRGBA image.
type Canvas struct {
	img *image.NRGBA
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	r := img.Bounds().Sub(img.Bounds().Min).Add(image.Pt(x, y))
	draw.Draw(m.img, r, img, img.Bounds().Min, draw.Over)
}

func (m *Canvas) Size() (int, int) {
	return m.img.Bounds().Dx(), m.img.Bounds().Dy()
}

func (m *Canvas) ToImage() image.Image {
	return m.img
}

var _ ports.Canvas = (*Canvas)(nil)
