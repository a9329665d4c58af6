// Package segment wraps the external foreground segmenter as a pipeline stage.
package segment

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/semaphore"

	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
)

// Stage converts the input to RGBA and runs it through the segmenter.
// At most maxConcurrent segmentations run at once across all callers.
type Stage struct {
	segmenter ports.Segmenter
	sink      ports.DebugSink
	logger    ports.Logger
	sem       *semaphore.Weighted
}

// NewStage creates a new segment stage. maxConcurrent <= 0 means one.
func NewStage(segmenter ports.Segmenter, sink ports.DebugSink, logger ports.Logger, maxConcurrent int) *Stage {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Stage{
		segmenter: segmenter,
		sink:      sink,
		logger:    logger.WithComponent("segment"),
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Execute segments the input image.
func (s *Stage) Execute(ctx context.Context, input pipeline.SegmentInput) (pipeline.SegmentResult, error) {
	if input.Image == nil {
		return pipeline.SegmentResult{}, fmt.Errorf("no image to segment")
	}
	src := imaging.Clone(input.Image)

	start := time.Now()
	out, err := s.segment(ctx, src)
	if err != nil {
		return pipeline.SegmentResult{}, err
	}
	if out == nil {
		return pipeline.SegmentResult{}, fmt.Errorf("segmenter returned no image")
	}
	if got, want := out.Bounds().Size(), src.Bounds().Size(); got != want {
		return pipeline.SegmentResult{}, fmt.Errorf("segmenter returned %dx%d for a %dx%d input", got.X, got.Y, want.X, want.Y)
	}
	s.logger.Debug("Segmented %s in %d ms", input.Name, time.Since(start).Milliseconds())

	result := imaging.Clone(out)
	if s.sink.Enabled() {
		if err := s.sink.SaveSegmented(input.Name, result); err != nil {
			s.logger.Warn("Failed to save debug output: %s", err)
		}
	}

	return pipeline.SegmentResult{Image: result}, nil
}

// segment calls the segmenter while holding a slot. The slot is released
// even if the segmenter panics.
func (s *Stage) segment(ctx context.Context, src image.Image) (image.Image, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	out, err := s.segmenter.Segment(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("segmenter: %w", err)
	}
	return out, nil
}
