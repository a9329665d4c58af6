package ports

import "image"

// Renderer abstracts image codec and resampling operations.
type Renderer interface {
	// NewCanvas creates a drawing canvas initialised with a copy of bg.
	NewCanvas(bg image.Image) Canvas

	// DecodeImage decodes JPEG, PNG or WebP data into an image.Image.
	DecodeImage(data []byte) (image.Image, error)

	// EncodeImage encodes an image to the specified format.
	EncodeImage(img image.Image, format ImageFormat) ([]byte, error)

	// ResizeImage resamples an image to exactly width x height.
	ResizeImage(img image.Image, width, height int) image.Image
}

// Canvas is a fixed-size drawing surface that foregrounds are pasted onto.
type Canvas interface {
	// DrawImage alpha-blends img onto the canvas with its top-left at (x, y),
	// using img's own alpha channel as the mask.
	DrawImage(img image.Image, x, y int)

	// Size returns the canvas dimensions.
	Size() (width, height int)

	// ToImage returns the canvas as an image.Image.
	ToImage() image.Image
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
)

// String returns the lower-case format name.
func (f ImageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}
