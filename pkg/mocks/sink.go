package mocks

import (
	"image"
	"sync"

	"github.com/user/portrait/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	Segmented  map[string]image.Image
	Cropped    map[string]image.Image
	Placements map[string][]byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:    enabled,
		Segmented:  make(map[string]image.Image),
		Cropped:    make(map[string]image.Image),
		Placements: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveSegmented(name string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Segmented[name] = img
	return nil
}

func (m *DebugSink) SaveCropped(name string, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cropped[name] = img
	return nil
}

func (m *DebugSink) SavePlacement(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Placements[name] = data
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
