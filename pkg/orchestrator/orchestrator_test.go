package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/portrait/pkg/adapters/ggrenderer"
	"github.com/user/portrait/pkg/adapters/logger"
	"github.com/user/portrait/pkg/adapters/nullsink"
	"github.com/user/portrait/pkg/mocks"
	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
	"github.com/user/portrait/pkg/stages/background"
	"github.com/user/portrait/pkg/stages/composite"
	"github.com/user/portrait/pkg/stages/crop"
	"github.com/user/portrait/pkg/stages/segment"
)

var (
	inDir  = filepath.Join("photos")
	outDir = filepath.Join("portraits")
)

func newOrchestrator(fs ports.FileSystem, renderer ports.Renderer, seg ports.Segmenter, log ports.Logger) *Orchestrator {
	sink := nullsink.New()
	return New(
		segment.NewStage(seg, sink, log, 1),
		crop.NewStage(sink, log),
		background.NewStage(log),
		composite.NewStage(renderer, sink, log),
		renderer,
		fs,
		log,
	)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.InputDir = inDir
	cfg.OutputDir = outDir
	cfg.Workers = 2
	return cfg
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encode(t *testing.T, img image.Image, format imaging.Format) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgb(img image.Image, x, y int) pipeline.Color {
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	return pipeline.Color{R: c.R, G: c.G, B: c.B}
}

func TestRun_EndToEnd(t *testing.T) {
	fs := mocks.NewFileSystem()
	red := color.NRGBA{R: 255, A: 255}
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "portrait.jpg"), encode(t, solid(400, 600, red), imaging.JPEG)))

	seg := mocks.NewRectSegmenter(image.Rect(100, 50, 300, 550))
	orch := newOrchestrator(fs, ggrenderer.New(), seg, logger.NewNoop())

	result, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total())
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, result.Failed)

	r := result.Results[0]
	require.True(t, r.OK(), "unexpected error: %v", r.Err)
	assert.Equal(t, pipeline.BoundingBox{X1: 100, Y1: 50, X2: 300, Y2: 550}, r.Box)
	assert.Equal(t, pipeline.Dimension{Width: 388, Height: 680}, r.Placement.Size)
	assert.Equal(t, image.Pt(406, 160), r.Placement.Offset)

	data, ok := fs.GetFile(filepath.Join(outDir, "portrait.png"))
	require.True(t, ok, "expected output file")
	out := decodePNG(t, data)

	assert.Equal(t, image.Rect(0, 0, 1200, 800), out.Bounds())
	assert.Equal(t, pipeline.TopColor, rgb(out, 0, 0))
	assert.Equal(t, pipeline.BottomColor, rgb(out, 1199, 799))

	center := rgb(out, 600, 400)
	assert.Greater(t, int(center.R), 200)
	assert.Less(t, int(center.G), 60)
	assert.Less(t, int(center.B), 60)
}

func TestRun_BatchIsolation(t *testing.T) {
	fs := mocks.NewFileSystem()
	for name, c := range map[string]color.NRGBA{
		"a.png": {R: 255, A: 255},
		"b.png": {B: 255, A: 255},
		"c.png": {G: 255, A: 255},
	} {
		require.NoError(t, fs.WriteFile(filepath.Join(inDir, name), encode(t, solid(60, 90, c), imaging.PNG)))
	}

	// Blue images have nothing the segmenter recognises as a subject.
	seg := &mocks.Segmenter{
		SegmentFunc: func(ctx context.Context, img image.Image) (image.Image, error) {
			_, _, b, _ := img.At(0, 0).RGBA()
			return mocks.ApplyMask(img, func(x, y int) uint8 {
				if b > 0 {
					return 0
				}
				return 255
			}), nil
		},
	}
	orch := newOrchestrator(fs, ggrenderer.New(), seg, logger.NewNoop())

	result, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, result.Results, 3)
	assert.Equal(t, "b.png", result.Results[1].Job.Name)
	assert.Equal(t, KindNoSubject, result.Results[1].Kind())
	assert.ErrorIs(t, result.Results[1].Err, crop.ErrNoSubjectDetected)

	files := fs.GetAllFiles()
	assert.Contains(t, files, filepath.Join(outDir, "a.png"))
	assert.NotContains(t, files, filepath.Join(outDir, "b.png"))
	assert.Contains(t, files, filepath.Join(outDir, "c.png"))
}

func TestRun_NoImages(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.MkdirAll(inDir))
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "notes.txt"), []byte("hi")))

	seg := &mocks.Segmenter{}
	orch := newOrchestrator(fs, &mocks.Renderer{}, seg, logger.NewNoop())

	result, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())
	assert.Zero(t, seg.Calls())

	isDir, _ := fs.IsDir(outDir)
	assert.True(t, isDir, "output directory should still be created")
}

func TestRun_InvalidInputDirectory(t *testing.T) {
	tests := []struct {
		name  string
		setup func(fs *mocks.FileSystem)
	}{
		{"missing", func(fs *mocks.FileSystem) {}},
		{"regular file", func(fs *mocks.FileSystem) {
			_ = fs.WriteFile(inDir, []byte("not a dir"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			tt.setup(fs)
			orch := newOrchestrator(fs, &mocks.Renderer{}, &mocks.Segmenter{}, logger.NewNoop())

			_, err := orch.Run(context.Background(), testConfig())
			assert.ErrorIs(t, err, ErrInvalidInputDirectory)

			isDir, _ := fs.IsDir(outDir)
			assert.False(t, isDir, "output directory must not be created")
		})
	}
}

func TestDiscover_FiltersAndOrders(t *testing.T) {
	fs := mocks.NewFileSystem()
	for _, name := range []string{"b.JPG", "a.webp", "c.Jpeg", "d.gif", "e.png.txt", "README"} {
		require.NoError(t, fs.WriteFile(filepath.Join(inDir, name), []byte("x")))
	}
	require.NoError(t, fs.MkdirAll(filepath.Join(inDir, "nested.png")))

	orch := newOrchestrator(fs, &mocks.Renderer{}, &mocks.Segmenter{}, logger.NewNoop())
	jobs, err := orch.Discover(testConfig())
	require.NoError(t, err)

	var names []string
	for i, job := range jobs {
		assert.Equal(t, i+1, job.Index)
		names = append(names, job.Name)
	}
	assert.Equal(t, []string{"a.webp", "b.JPG", "c.Jpeg"}, names)
	assert.Equal(t, filepath.Join(outDir, "b.png"), jobs[1].OutputPath)
	assert.Equal(t, "c", jobs[2].Stem)
}

func TestRun_OutputCollision(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "a.jpg"), []byte("x")))
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "a.png"), []byte("x")))

	orch := newOrchestrator(fs, &mocks.Renderer{}, &mocks.Segmenter{}, logger.NewNoop())
	result, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.True(t, result.Results[0].OK())
	assert.Equal(t, KindWrite, result.Results[1].Kind())
	assert.Contains(t, result.Results[1].Err.Error(), "a.jpg")
}

func TestDiscover_CollisionIgnoresCase(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "A.jpg"), []byte("x")))
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "a.png"), []byte("x")))
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "b.webp"), []byte("x")))

	orch := newOrchestrator(fs, &mocks.Renderer{}, &mocks.Segmenter{}, logger.NewNoop())
	jobs, err := orch.Discover(testConfig())
	require.NoError(t, err)

	require.Len(t, jobs, 3)
	assert.Equal(t, "A.jpg", jobs[0].Name)
	assert.Empty(t, jobs[0].CollidesWith)
	assert.Equal(t, "A.jpg", jobs[1].CollidesWith)
	assert.Empty(t, jobs[2].CollidesWith)
}

func TestProcess_ErrorKinds(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		setup    func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter)
		wantKind ErrorKind
	}{
		{"read", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			fs.ReadFileFunc = func(path string) ([]byte, error) { return nil, boom }
		}, KindRead},
		{"decode", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			r.DecodeImageFunc = func(data []byte) (image.Image, error) { return nil, boom }
		}, KindDecode},
		{"segment", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			seg.SegmentFunc = func(ctx context.Context, img image.Image) (image.Image, error) { return nil, boom }
		}, KindSegment},
		{"encode", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			r.EncodeImageFunc = func(img image.Image, format ports.ImageFormat) ([]byte, error) { return nil, boom }
		}, KindEncode},
		{"write", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			fs.WriteFileFunc = func(path string, data []byte) error { return boom }
		}, KindWrite},
		{"panic", func(fs *mocks.FileSystem, r *mocks.Renderer, seg *mocks.Segmenter) {
			seg.SegmentFunc = func(ctx context.Context, img image.Image) (image.Image, error) { panic("segmenter crashed") }
		}, KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			renderer := &mocks.Renderer{}
			seg := &mocks.Segmenter{}
			require.NoError(t, fs.WriteFile("a.jpg", []byte("x")))
			tt.setup(fs, renderer, seg)

			orch := newOrchestrator(fs, renderer, seg, logger.NewNoop())
			job := Job{Index: 1, Name: "a.jpg", Stem: "a", InputPath: "a.jpg", OutputPath: filepath.Join(outDir, "a.png")}

			r := orch.Process(context.Background(), testConfig(), job)
			require.Error(t, r.Err)
			assert.Equal(t, tt.wantKind, r.Kind())
			assert.Equal(t, job, r.Job)

			_, written := fs.GetFile(job.OutputPath)
			assert.False(t, written, "failed image must not produce output")
		})
	}
}

func TestRun_Canceled(t *testing.T) {
	fs := mocks.NewFileSystem()
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		require.NoError(t, fs.WriteFile(filepath.Join(inDir, name), []byte("x")))
	}
	seg := &mocks.Segmenter{}
	orch := newOrchestrator(fs, &mocks.Renderer{}, seg, logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := orch.Run(ctx, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, result.Total())
	assert.Equal(t, 3, result.Failed)
	for _, r := range result.Results {
		assert.Equal(t, KindCanceled, r.Kind())
	}
	assert.Zero(t, seg.Calls())
}

func TestRun_ResultsKeepListingOrder(t *testing.T) {
	fs := mocks.NewFileSystem()
	names := []string{"a.png", "b.png", "c.png", "d.png", "e.png", "f.png"}
	for _, name := range names {
		require.NoError(t, fs.WriteFile(filepath.Join(inDir, name), []byte("x")))
	}

	var out, errOut bytes.Buffer
	log := logger.NewConsoleWriters(ports.LevelInfo, &out, &errOut, false)
	orch := newOrchestrator(fs, &mocks.Renderer{}, &mocks.Segmenter{}, log)

	cfg := testConfig()
	cfg.Workers = 4
	result, err := orch.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, result.Results, len(names))
	for i, r := range result.Results {
		assert.Equal(t, i+1, r.Job.Index)
		assert.Equal(t, names[i], r.Job.Name)
	}

	for i, name := range names {
		assert.Contains(t, out.String(), fmt.Sprintf("[%d/6] %s", i+1, name))
	}
	assert.Empty(t, strings.TrimSpace(errOut.String()))
}

func TestRun_FailuresAreLoggedAsErrors(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile(filepath.Join(inDir, "broken.jpg"), []byte("x")))
	renderer := &mocks.Renderer{
		DecodeImageFunc: func(data []byte) (image.Image, error) { return nil, errors.New("bad header") },
	}

	var out, errOut bytes.Buffer
	log := logger.NewConsoleWriters(ports.LevelInfo, &out, &errOut, false)
	orch := newOrchestrator(fs, renderer, &mocks.Segmenter{}, log)

	result, err := orch.Run(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Contains(t, errOut.String(), "[1/1] broken.jpg")
	assert.Contains(t, errOut.String(), "bad header")
}

func TestErrorKind_String(t *testing.T) {
	tests := map[ErrorKind]string{
		KindNone:      "none",
		KindRead:      "read",
		KindDecode:    "decode",
		KindSegment:   "segment",
		KindNoSubject: "no-subject",
		KindEncode:    "encode",
		KindWrite:     "write",
		KindCanceled:  "canceled",
		KindInternal:  "internal",
		ErrorKind(99): "unknown",
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.String())
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindDecode, KindOf(fail(KindDecode, errors.New("x"))))
}

func TestIsSupported(t *testing.T) {
	for _, name := range []string{"a.jpg", "a.JPEG", "a.Png", "a.webp"} {
		assert.True(t, IsSupported(name), name)
	}
	for _, name := range []string{"a.gif", "a", "a.jpg.bak", ".png.txt"} {
		assert.False(t, IsSupported(name), name)
	}
}
