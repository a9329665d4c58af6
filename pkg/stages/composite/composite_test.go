package composite

import (
	"context"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/portrait/pkg/adapters/ggrenderer"
	"github.com/user/portrait/pkg/adapters/logger"
	"github.com/user/portrait/pkg/mocks"
	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
	"github.com/user/portrait/pkg/stages/background"
)

func opaque(c pipeline.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

var foregroundSizes = []pipeline.Dimension{
	{Width: 200, Height: 350},
	{Width: 400, Height: 420},
	{Width: 1, Height: 1},
	{Width: 1, Height: 900},
	{Width: 3000, Height: 10},
	{Width: 901, Height: 681},
	{Width: 1201, Height: 801},
	{Width: 333, Height: 777},
	{Width: 4000, Height: 6000},
}

func TestComputePlacement_FitsWithinBounds(t *testing.T) {
	canvas := pipeline.DefaultCanvas
	g := pipeline.DefaultGeometry()

	for _, fg := range foregroundSizes {
		p := ComputePlacement(fg, canvas, g)

		assert.LessOrEqual(t, float64(p.Size.Width), 0.75*float64(canvas.Width)+1, "fg %v", fg)
		assert.LessOrEqual(t, float64(p.Size.Height), 0.85*float64(canvas.Height)+1, "fg %v", fg)
		assert.Greater(t, p.Scale, 0.0)
	}
}

func TestComputePlacement_OneConstraintIsTight(t *testing.T) {
	canvas := pipeline.DefaultCanvas
	g := pipeline.DefaultGeometry()

	for _, fg := range foregroundSizes {
		p := ComputePlacement(fg, canvas, g)
		wSlack := 900 - p.Size.Width
		hSlack := 680 - p.Size.Height
		assert.True(t, wSlack <= 1 || hSlack <= 1, "fg %v placed at %v", fg, p.Size)
	}
}

func TestComputePlacement_PreservesAspectRatio(t *testing.T) {
	g := pipeline.DefaultGeometry()

	for _, fg := range foregroundSizes {
		p := ComputePlacement(fg, pipeline.DefaultCanvas, g)
		assert.InDelta(t, float64(fg.Width)*p.Scale, float64(p.Size.Width), 1, "fg %v", fg)
		assert.InDelta(t, float64(fg.Height)*p.Scale, float64(p.Size.Height), 1, "fg %v", fg)
	}
}

func TestComputePlacement_Centering(t *testing.T) {
	canvas := pipeline.DefaultCanvas
	g := pipeline.DefaultGeometry()

	for _, fg := range foregroundSizes {
		p := ComputePlacement(fg, canvas, g)

		mid := float64(p.Offset.X) + float64(p.Size.Width)/2
		assert.InDelta(t, float64(canvas.Width)/2, mid, 1, "fg %v", fg)
		assert.Equal(t, 160, p.Offset.Y, "fg %v", fg)
	}
}

func TestComputePlacement_KnownValues(t *testing.T) {
	// Width-bound: 900/200 = 4.5 vs 680/100 = 6.8.
	p := ComputePlacement(pipeline.Dimension{Width: 200, Height: 100}, pipeline.DefaultCanvas, pipeline.DefaultGeometry())
	assert.Equal(t, 4.5, p.Scale)
	assert.Equal(t, pipeline.Dimension{Width: 900, Height: 450}, p.Size)
	assert.Equal(t, image.Pt(150, 160), p.Offset)

	// Height-bound: 680/340 = 2 vs 900/101.
	p = ComputePlacement(pipeline.Dimension{Width: 101, Height: 340}, pipeline.DefaultCanvas, pipeline.DefaultGeometry())
	assert.Equal(t, 2.0, p.Scale)
	assert.Equal(t, pipeline.Dimension{Width: 202, Height: 680}, p.Size)
	assert.Equal(t, image.Pt(499, 160), p.Offset)
}

func TestComputePlacement_OddRemainderBiasesLeft(t *testing.T) {
	p := ComputePlacement(pipeline.Dimension{Width: 3, Height: 10}, pipeline.Dimension{Width: 10, Height: 10},
		pipeline.Geometry{MaxWidthRatio: 1, MaxHeightRatio: 1, TopOffsetRatio: 0})

	assert.Equal(t, pipeline.Dimension{Width: 3, Height: 10}, p.Size)
	assert.Equal(t, 3, p.Offset.X)
}

func TestComputePlacement_NegativeOffsetFloors(t *testing.T) {
	p := ComputePlacement(pipeline.Dimension{Width: 10, Height: 10}, pipeline.Dimension{Width: 5, Height: 5},
		pipeline.Geometry{MaxWidthRatio: 2.2, MaxHeightRatio: 2.2, TopOffsetRatio: 0.2})

	assert.Equal(t, 11, p.Size.Width)
	assert.Equal(t, -3, p.Offset.X)
	assert.Equal(t, 1, p.Offset.Y)
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{7, 2, 3},
		{-7, 2, -4},
		{-6, 2, -3},
		{0, 2, 0},
		{1199, 2, 599},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, floorDiv(tt.a, tt.b), "%d // %d", tt.a, tt.b)
	}
}

func TestResizeAndCenter(t *testing.T) {
	r := ggrenderer.New()
	fg := image.NewNRGBA(image.Rect(0, 0, 200, 350))

	scaled, p := ResizeAndCenter(r, fg, pipeline.DefaultCanvas, pipeline.DefaultGeometry())

	assert.Equal(t, p.Size, pipeline.DimensionOf(scaled))
	assert.Equal(t, 160, p.Offset.Y)
}

func newStage(t *testing.T, sink *mocks.DebugSink) *Stage {
	t.Helper()
	return NewStage(ggrenderer.New(), sink, logger.NewNoop())
}

func TestStage_Execute(t *testing.T) {
	bg := background.CreateVerticalGradient(pipeline.DefaultCanvas, pipeline.TopColor, pipeline.BottomColor)
	fg := image.NewNRGBA(image.Rect(0, 0, 200, 350))
	red := color.NRGBA{R: 220, G: 20, B: 20, A: 255}
	for y := 0; y < 350; y++ {
		for x := 0; x < 200; x++ {
			fg.SetNRGBA(x, y, red)
		}
	}

	sink := mocks.NewDebugSink(true)
	result, err := newStage(t, sink).Execute(context.Background(), pipeline.CompositeInput{
		Name:       "bob",
		Foreground: fg,
		Background: bg,
		Geometry:   pipeline.DefaultGeometry(),
	})
	require.NoError(t, err)

	out := result.Image
	require.Equal(t, image.Rect(0, 0, 1200, 800), out.Bounds())

	at := func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(out.At(x, y)).(color.NRGBA)
	}
	assert.Equal(t, opaque(pipeline.TopColor), at(0, 0))
	assert.Equal(t, opaque(pipeline.BottomColor), at(1199, 799))

	p := result.Placement
	center := at(p.Offset.X+p.Size.Width/2, p.Offset.Y+100)
	assert.Equal(t, red, center)

	// Left of the footprint keeps the gradient row color.
	assert.Equal(t, bg.NRGBAAt(0, 400), at(p.Offset.X-1, 400))
	assert.Contains(t, sink.Placements, "bob")

	// The input background is not touched.
	assert.Equal(t, opaque(pipeline.TopColor), bg.NRGBAAt(600, 300))
}

func TestStage_Execute_TransparentForegroundLeavesBackground(t *testing.T) {
	bg := background.CreateVerticalGradient(pipeline.Dimension{Width: 120, Height: 80}, pipeline.TopColor, pipeline.BottomColor)
	fg := image.NewNRGBA(image.Rect(0, 0, 30, 40))

	result, err := newStage(t, mocks.NewDebugSink(false)).Execute(context.Background(), pipeline.CompositeInput{
		Foreground: fg,
		Background: bg,
		Geometry:   pipeline.DefaultGeometry(),
	})
	require.NoError(t, err)

	for y := 0; y < 80; y += 7 {
		for x := 0; x < 120; x += 11 {
			got := color.NRGBAModel.Convert(result.Image.At(x, y)).(color.NRGBA)
			require.Equal(t, bg.NRGBAAt(x, y), got, "pixel (%d,%d)", x, y)
		}
	}
}

func TestStage_Execute_MissingInput(t *testing.T) {
	_, err := newStage(t, mocks.NewDebugSink(false)).Execute(context.Background(), pipeline.CompositeInput{
		Background: image.NewNRGBA(image.Rect(0, 0, 10, 10)),
	})
	assert.Error(t, err)
}

func TestStage_Execute_CanvasSizeMismatch(t *testing.T) {
	renderer := &mocks.Renderer{
		NewCanvasFunc: func(bg image.Image) ports.Canvas {
			return (&mocks.Renderer{}).NewCanvas(image.NewNRGBA(image.Rect(0, 0, 10, 10)))
		},
	}
	stage := NewStage(renderer, mocks.NewDebugSink(false), logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.CompositeInput{
		Name:       "alice",
		Foreground: image.NewNRGBA(image.Rect(0, 0, 20, 30)),
		Background: image.NewNRGBA(image.Rect(0, 0, 120, 80)),
		Geometry:   pipeline.DefaultGeometry(),
	})
	assert.ErrorContains(t, err, "canvas is 10x10, background is 120x80")
}

func TestStage_Execute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newStage(t, mocks.NewDebugSink(false)).Execute(ctx, pipeline.CompositeInput{})
	assert.ErrorIs(t, err, context.Canceled)
}
