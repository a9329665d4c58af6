// Package orchestrator runs the portrait pipeline for one image and drives
// it over a directory of images.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/user/portrait/pkg/pipeline"
	"github.com/user/portrait/pkg/ports"
	"github.com/user/portrait/pkg/stages/crop"
)

// SupportedExtensions lists the input extensions, compared case-insensitively.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Config contains all configuration for the orchestrator.
type Config struct {
	// Input/Output
	InputDir  string
	OutputDir string

	// Canvas
	Canvas      pipeline.Dimension
	TopColor    pipeline.Color
	BottomColor pipeline.Color

	// Cropping and placement ratios
	Geometry pipeline.Geometry

	// Number of images processed concurrently (0 = number of CPUs)
	Workers int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Canvas:      pipeline.DefaultCanvas,
		TopColor:    pipeline.TopColor,
		BottomColor: pipeline.BottomColor,
		Geometry:    pipeline.DefaultGeometry(),
		Workers:     runtime.NumCPU(),
	}
}

// Orchestrator coordinates the execution of all pipeline stages.
type Orchestrator struct {
	segmentStage    pipeline.Stage[pipeline.SegmentInput, pipeline.SegmentResult]
	cropStage       pipeline.Stage[pipeline.CropInput, pipeline.CropResult]
	backgroundStage pipeline.Stage[pipeline.BackgroundInput, pipeline.BackgroundResult]
	compositeStage  pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult]
	renderer        ports.Renderer
	fs              ports.FileSystem
	logger          ports.Logger
}

// New creates a new Orchestrator.
func New(
	segmentStage pipeline.Stage[pipeline.SegmentInput, pipeline.SegmentResult],
	cropStage pipeline.Stage[pipeline.CropInput, pipeline.CropResult],
	backgroundStage pipeline.Stage[pipeline.BackgroundInput, pipeline.BackgroundResult],
	compositeStage pipeline.Stage[pipeline.CompositeInput, pipeline.CompositeResult],
	renderer ports.Renderer,
	fs ports.FileSystem,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		segmentStage:    segmentStage,
		cropStage:       cropStage,
		backgroundStage: backgroundStage,
		compositeStage:  compositeStage,
		renderer:        renderer,
		fs:              fs,
		logger:          logger,
	}
}

// Job is one input file and where its portrait goes.
type Job struct {
	Index      int    // 1-based position in the batch
	Name       string // Input file name, e.g. "alice.JPG"
	Stem       string // Name without extension, e.g. "alice"
	InputPath  string
	OutputPath string

	// CollidesWith names an earlier input that maps to the same OutputPath.
	CollidesWith string
}

// Result is the outcome of processing one Job. Err is nil on success and
// otherwise an *ImageError.
type Result struct {
	Job       Job
	Err       error
	Box       pipeline.BoundingBox
	Placement pipeline.Placement
	Duration  time.Duration
}

// OK reports whether the image was written successfully.
func (r Result) OK() bool {
	return r.Err == nil
}

// Kind returns the failure classification, KindNone on success.
func (r Result) Kind() ErrorKind {
	return KindOf(r.Err)
}

// RunResult summarizes a batch.
type RunResult struct {
	InputDir  string
	OutputDir string
	Canvas    pipeline.Dimension
	Results   []Result // ordered by Job.Index
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Total returns the number of images attempted.
func (r RunResult) Total() int {
	return len(r.Results)
}

// Run validates the directories, discovers inputs and processes them.
// Only setup problems are returned as errors; per-image failures are counted
// in the result. A canceled context is reported after all jobs are accounted for.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	start := time.Now()
	result := RunResult{
		InputDir:  config.InputDir,
		OutputDir: config.OutputDir,
		Canvas:    config.Canvas,
	}

	jobs, err := o.Discover(config)
	if err != nil {
		return result, err
	}

	if err := o.fs.MkdirAll(config.OutputDir); err != nil {
		return result, fmt.Errorf("create output directory: %w", err)
	}

	if len(jobs) == 0 {
		o.logger.Warn("No supported images found in %s", config.InputDir)
		return result, nil
	}

	o.logger.Info("Found %d images, processing...", len(jobs))

	result.Results = o.processAll(ctx, config, jobs)
	for _, r := range result.Results {
		if r.OK() {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Duration = time.Since(start)

	o.logger.Info("Batch completed: %d succeeded, %d failed", result.Succeeded, result.Failed)
	return result, ctx.Err()
}

// Discover lists supported images in the input directory in listing order.
func (o *Orchestrator) Discover(config Config) ([]Job, error) {
	isDir, err := o.fs.IsDir(config.InputDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidInputDirectory, config.InputDir, err)
	}
	if !isDir {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInputDirectory, config.InputDir)
	}

	entries, err := o.fs.ReadDir(config.InputDir)
	if err != nil {
		return nil, fmt.Errorf("read input directory: %w", err)
	}

	var jobs []Job
	owners := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir || !IsSupported(entry.Name) {
			continue
		}
		stem := strings.TrimSuffix(entry.Name, filepath.Ext(entry.Name))
		job := Job{
			Index:      len(jobs) + 1,
			Name:       entry.Name,
			Stem:       stem,
			InputPath:  filepath.Join(config.InputDir, entry.Name),
			OutputPath: filepath.Join(config.OutputDir, stem+".png"),
		}
		// Keys are case-folded so A.jpg and a.png collide on case-insensitive filesystems too.
		key := strings.ToLower(job.OutputPath)
		if owner, ok := owners[key]; ok {
			job.CollidesWith = owner
		} else {
			owners[key] = entry.Name
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// IsSupported reports whether name has a supported image extension.
func IsSupported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// processAll runs jobs on a worker pool and returns results in job order.
func (o *Orchestrator) processAll(ctx context.Context, config Config, jobs []Job) []Result {
	numWorkers := config.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	queue := make(chan Job, len(jobs))
	results := make(chan Result, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go o.worker(ctx, &wg, config, queue, results)
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]Result, 0, len(jobs))
	for r := range results {
		o.report(r, len(jobs))
		collected = append(collected, r)
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Job.Index < collected[j].Job.Index
	})
	return collected
}

// worker processes jobs until the queue is drained. After cancellation the
// remaining jobs are still drained so each one gets a result.
func (o *Orchestrator) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	config Config,
	queue <-chan Job,
	results chan<- Result,
) {
	defer wg.Done()

	for job := range queue {
		if err := ctx.Err(); err != nil {
			results <- Result{Job: job, Err: fail(KindCanceled, err)}
			continue
		}
		results <- o.Process(ctx, config, job)
	}
}

func (o *Orchestrator) report(r Result, total int) {
	if r.OK() {
		o.logger.Info("[%d/%d] %s -> %s", r.Job.Index, total, r.Job.Name, r.Job.OutputPath)
		return
	}
	o.logger.Error("[%d/%d] %s failed: %s", r.Job.Index, total, r.Job.Name, r.Err)
}

// Process runs the full pipeline for a single image. It never panics and
// never returns a partial output file on failure.
func (o *Orchestrator) Process(ctx context.Context, config Config, job Job) (result Result) {
	start := time.Now()
	result = Result{Job: job}
	defer func() {
		if p := recover(); p != nil {
			result.Err = fail(KindInternal, fmt.Errorf("panic: %v", p))
		}
		result.Duration = time.Since(start)
	}()

	if job.CollidesWith != "" {
		result.Err = fail(KindWrite, fmt.Errorf("output %s is already produced by %s", job.OutputPath, job.CollidesWith))
		return result
	}

	// 1. Load
	data, err := o.fs.ReadFile(job.InputPath)
	if err != nil {
		result.Err = fail(KindRead, err)
		return result
	}
	img, err := o.renderer.DecodeImage(data)
	if err != nil {
		result.Err = fail(KindDecode, err)
		return result
	}

	// 2. Segment
	segmented, err := o.segmentStage.Execute(ctx, pipeline.SegmentInput{Name: job.Stem, Image: img})
	if err != nil {
		result.Err = fail(stageKind(ctx, err, KindSegment), err)
		return result
	}

	// 3. Crop
	cropped, err := o.cropStage.Execute(ctx, pipeline.CropInput{
		Name:  job.Stem,
		Image: segmented.Image,
		Ratio: config.Geometry.HalfBodyRatio,
	})
	if err != nil {
		kind := stageKind(ctx, err, KindInternal)
		if errors.Is(err, crop.ErrNoSubjectDetected) {
			kind = KindNoSubject
		}
		result.Err = fail(kind, err)
		return result
	}
	result.Box = cropped.Box

	// 4. Background
	bg, err := o.backgroundStage.Execute(ctx, pipeline.BackgroundInput{
		Size:   config.Canvas,
		Top:    config.TopColor,
		Bottom: config.BottomColor,
	})
	if err != nil {
		result.Err = fail(stageKind(ctx, err, KindInternal), err)
		return result
	}

	// 5. Resize, place and composite
	composed, err := o.compositeStage.Execute(ctx, pipeline.CompositeInput{
		Name:       job.Stem,
		Foreground: cropped.Image,
		Background: bg.Image,
		Geometry:   config.Geometry,
	})
	if err != nil {
		result.Err = fail(stageKind(ctx, err, KindInternal), err)
		return result
	}
	result.Placement = composed.Placement

	// 6. Encode and write
	encoded, err := o.renderer.EncodeImage(composed.Image, ports.FormatPNG)
	if err != nil {
		result.Err = fail(KindEncode, err)
		return result
	}
	if err := o.fs.WriteFile(job.OutputPath, encoded); err != nil {
		result.Err = fail(KindWrite, err)
		return result
	}

	return result
}

func stageKind(ctx context.Context, err error, fallback ErrorKind) ErrorKind {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return KindCanceled
	}
	return fallback
}
