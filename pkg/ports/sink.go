package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// Names are the input file stem, so each image gets its own namespace.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveSegmented saves the segmenter output (subject mask in alpha).
	SaveSegmented(name string, img image.Image) error

	// SaveCropped saves the half-body crop.
	SaveCropped(name string, img image.Image) error

	// SavePlacement saves the computed placement as JSON.
	SavePlacement(name string, data []byte) error
}
