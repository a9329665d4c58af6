package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/portrait/pkg/mocks"
	"github.com/user/portrait/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveImages(t *testing.T) {
	tests := []struct {
		name string
		save func(s *Sink, img image.Image) error
		file string
	}{
		{"segmented", func(s *Sink, img image.Image) error { return s.SaveSegmented("alice", img) }, "segmented.png"},
		{"cropped", func(s *Sink, img image.Image) error { return s.SaveCropped("alice", img) }, "cropped.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			renderer := &mocks.Renderer{}
			sink := New(testBaseDir, fs, renderer)

			img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
			if err := tt.save(sink, img); err != nil {
				t.Fatalf("save failed: %v", err)
			}

			expectedPath := filepath.Join(testBaseDir, "alice", tt.file)
			saved, ok := fs.GetFile(expectedPath)
			if !ok {
				t.Fatalf("expected file to be saved at %s", expectedPath)
			}
			if string(saved) != "png" {
				t.Errorf("expected PNG-encoded data, got %q", saved)
			}
			if len(renderer.Encoded()) != 1 || renderer.Encoded()[0] != image.Image(img) {
				t.Error("expected the image to be passed to the renderer")
			}
		})
	}
}

func TestSink_SavePlacement(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"scale":2}`)
	if err := sink.SavePlacement("bob", data); err != nil {
		t.Fatalf("SavePlacement failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "bob", "placement.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_EncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	err := sink.SaveCropped("alice", image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	if err == nil {
		t.Fatal("expected error")
	}
	if len(fs.GetAllFiles()) != 0 {
		t.Error("expected no files written")
	}
}

func TestSink_RejectsPathNames(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	for _, name := range []string{"", ".", "..", filepath.Join("a", "b")} {
		if err := sink.SavePlacement(name, []byte("{}")); err == nil {
			t.Errorf("expected error for name %q", name)
		}
	}
}
