// Package filesink provides a file-based debug sink implementation.
//
// Output for an input named "alice.jpg" lands under <baseDir>/alice/:
//
//	segmented.png   segmenter output with the subject mask in alpha
//	cropped.png     the half-body crop
//	placement.json  scale, size and offset on the canvas
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/portrait/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveSegmented saves the segmenter output.
func (s *Sink) SaveSegmented(name string, img image.Image) error {
	return s.saveImage(name, "segmented.png", img)
}

// SaveCropped saves the half-body crop.
func (s *Sink) SaveCropped(name string, img image.Image) error {
	return s.saveImage(name, "cropped.png", img)
}

// SavePlacement saves the placement JSON.
func (s *Sink) SavePlacement(name string, data []byte) error {
	dir, err := s.dir(name)
	if err != nil {
		return err
	}
	return s.fs.WriteFile(filepath.Join(dir, "placement.json"), data)
}

func (s *Sink) saveImage(name, file string, img image.Image) error {
	dir, err := s.dir(name)
	if err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG)
	if err != nil {
		return fmt.Errorf("encode %s: %w", file, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, file), data)
}

func (s *Sink) dir(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid debug name %q", name)
	}
	dir := filepath.Join(s.baseDir, name)
	if err := s.fs.MkdirAll(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
