// Package onnxsegmenter runs a U²-Net style salient object model through
// ONNX Runtime to cut the subject out of a photo.
//
// The model takes a 1x3x320x320 float32 tensor and produces a saliency map
// whose first channel is used as the alpha mask.
package onnxsegmenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/user/portrait/pkg/ports"
)

// InputSize is the square side length the model expects.
const InputSize = 320

// ImageNet normalization used by the U²-Net family.
var (
	mean = [3]float32{0.485, 0.456, 0.406}
	std  = [3]float32{0.229, 0.224, 0.225}
)

// Options configures the segmenter.
type Options struct {
	// ModelPath is the .onnx file, e.g. u2net.onnx.
	ModelPath string
	// LibraryPath is the onnxruntime shared library. Empty uses the
	// platform default search path.
	LibraryPath string
}

// Segmenter implements ports.Segmenter with a single ONNX session.
// The session's tensors are bound at creation, so calls are serialized.
type Segmenter struct {
	mu      sync.Mutex
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	ownsEnv bool
	logger  ports.Logger
}

// New loads the model and prepares a reusable session.
func New(opts Options, logger ports.Logger) (*Segmenter, error) {
	if opts.ModelPath == "" {
		return nil, errors.New("onnx model path is required")
	}
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("onnx model: %w", err)
	}

	ownsEnv := false
	if !ort.IsInitialized() {
		if opts.LibraryPath != "" {
			ort.SetSharedLibraryPath(opts.LibraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
		ownsEnv = true
	}

	s := &Segmenter{ownsEnv: ownsEnv, logger: logger}
	if err := s.open(opts.ModelPath); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Segmenter) open(modelPath string) error {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return fmt.Errorf("inspect onnx model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("onnx model %s has no inputs or outputs", modelPath)
	}

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 3, InputSize, InputSize))
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	s.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, 1, InputSize, InputSize))
	if err != nil {
		return fmt.Errorf("create output tensor: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return fmt.Errorf("create session options: %w", err)
	}
	defer options.Destroy()

	s.session, err = ort.NewAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		[]ort.Value{s.input},
		[]ort.Value{s.output},
		options,
	)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}

	s.logger.Debug("Loaded ONNX model %s (input %s, output %s)", modelPath, inputs[0].Name, outputs[0].Name)
	return nil
}

// Segment returns img with the predicted subject mask as its alpha channel.
func (s *Segmenter) Segment(ctx context.Context, img image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, errors.New("onnx segmenter is closed")
	}

	preprocess(img, s.input.GetData())
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	mask := maskFromOutput(s.output.GetData(), InputSize)
	return applyMask(img, mask), nil
}

// Close releases the session, its tensors and, if this segmenter created it,
// the onnxruntime environment.
func (s *Segmenter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.session != nil {
		errs = append(errs, s.session.Destroy())
		s.session = nil
	}
	if s.input != nil {
		errs = append(errs, s.input.Destroy())
		s.input = nil
	}
	if s.output != nil {
		errs = append(errs, s.output.Destroy())
		s.output = nil
	}
	if s.ownsEnv {
		errs = append(errs, ort.DestroyEnvironment())
		s.ownsEnv = false
	}
	return errors.Join(errs...)
}

// preprocess writes img into dst as a CHW float tensor: resized to
// InputSize, scaled by the brightest channel value, then mean/std normalized.
// Any alpha in img is ignored.
func preprocess(img image.Image, dst []float32) {
	opaque := imaging.Clone(img)
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 255
	}
	resized := imaging.Resize(opaque, InputSize, InputSize, imaging.Lanczos)

	var maxValue uint8
	for i, v := range resized.Pix {
		if i%4 != 3 && v > maxValue {
			maxValue = v
		}
	}
	scale := float32(math.Max(float64(maxValue), 1e-6))

	plane := InputSize * InputSize
	for p := 0; p < plane; p++ {
		px := resized.Pix[p*4 : p*4+3]
		for c := 0; c < 3; c++ {
			dst[c*plane+p] = (float32(px[c])/scale - mean[c]) / std[c]
		}
	}
}

// maskFromOutput min-max normalizes the first size*size values of a
// saliency map into an 8-bit mask.
func maskFromOutput(data []float32, size int) *image.Gray {
	pred := data[:size*size]
	lo, hi := pred[0], pred[0]
	for _, v := range pred {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	mask := image.NewGray(image.Rect(0, 0, size, size))
	if hi <= lo {
		return mask
	}
	for i, v := range pred {
		mask.Pix[i] = uint8((v - lo) / (hi - lo) * 255)
	}
	return mask
}

// applyMask resizes mask to img's size and uses it as img's alpha.
func applyMask(img image.Image, mask *image.Gray) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	scaled := imaging.Resize(mask, b.Dx(), b.Dy(), imaging.Lanczos)
	for i := 3; i < len(out.Pix); i += 4 {
		// scaled is grayscale, so any color channel carries the mask value.
		out.Pix[i] = scaled.Pix[i-1]
	}
	return out
}

var _ ports.Segmenter = (*Segmenter)(nil)
