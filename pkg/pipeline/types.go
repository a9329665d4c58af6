package pipeline

import "image"

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// Valid reports whether both sides are positive.
func (d Dimension) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// DimensionOf returns the size of an image's bounds.
func DimensionOf(img image.Image) Dimension {
	b := img.Bounds()
	return Dimension{Width: b.Dx(), Height: b.Dy()}
}

// BoundingBox is the minimal rectangle containing every pixel with alpha > 0.
// X2 and Y2 are exclusive, so Width = X2-X1 and Height = Y2-Y1.
type BoundingBox struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// Width returns X2 - X1.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b BoundingBox) Height() int { return b.Y2 - b.Y1 }

// Rect converts the box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Color is an opaque 8-bit sRGB color.
type Color struct {
	R uint8
	G uint8
	B uint8
}

var (
	// TopColor is the gradient color at the first row (#FAFAF9).
	TopColor = Color{R: 250, G: 250, B: 249}
	// BottomColor is the gradient color at the last row (#E5E7EB).
	BottomColor = Color{R: 229, G: 231, B: 235}
)

// DefaultCanvas is the output size of every portrait.
var DefaultCanvas = Dimension{Width: 1200, Height: 800}

// Geometry holds the empirical ratios that drive cropping and placement.
type Geometry struct {
	HalfBodyRatio  float64 // Fraction of the subject height kept from the top
	MaxWidthRatio  float64 // Max scaled width as a fraction of canvas width
	MaxHeightRatio float64 // Max scaled height as a fraction of canvas height
	TopOffsetRatio float64 // Vertical offset as a fraction of canvas height
}

// DefaultGeometry returns the tuned ratios for portrait-like inputs.
func DefaultGeometry() Geometry {
	return Geometry{
		HalfBodyRatio:  0.7,
		MaxWidthRatio:  0.75,
		MaxHeightRatio: 0.85,
		TopOffsetRatio: 0.2,
	}
}

// Placement describes where a scaled foreground lands on the canvas.
type Placement struct {
	Scale  float64     `json:"scale"`
	Size   Dimension   `json:"size"`
	Offset image.Point `json:"offset"`
}

// =============================================================================
// Segment Stage Types
// =============================================================================

// SegmentInput is a decoded source image.
type SegmentInput struct {
	Name  string // File stem, used for debug output
	Image image.Image
}

// SegmentResult holds the subject with its mask in the alpha channel.
type SegmentResult struct {
	Image *image.NRGBA
}

// =============================================================================
// Crop Stage Types
// =============================================================================

// CropInput contains the segmented image and the half-body ratio.
type CropInput struct {
	Name  string
	Image image.Image
	Ratio float64
}

// CropResult contains the half-body crop and the subject bounding box
// it was derived from.
type CropResult struct {
	Image *image.NRGBA
	Box   BoundingBox
}

// =============================================================================
// Background Stage Types
// =============================================================================

// BackgroundInput describes a vertical gradient canvas.
type BackgroundInput struct {
	Size   Dimension
	Top    Color
	Bottom Color
}

// BackgroundResult contains a freshly allocated gradient the caller owns.
type BackgroundResult struct {
	Image *image.NRGBA
}

// =============================================================================
// Composite Stage Types
// =============================================================================

// CompositeInput contains the foreground crop and the canvas background.
type CompositeInput struct {
	Name       string
	Foreground image.Image
	Background image.Image
	Geometry   Geometry
}

// CompositeResult contains the finished portrait.
type CompositeResult struct {
	Image     image.Image
	Placement Placement
}
