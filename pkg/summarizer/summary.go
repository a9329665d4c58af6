package summarizer

import (
	"time"

	"github.com/user/portrait/pkg/orchestrator"
)

// Summary contains everything reported about one batch.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Where images came from and went to
	InputDir  string
	OutputDir string

	// Canvas and segmenter used
	CanvasWidth  int
	CanvasHeight int
	Segmenter    string

	// Aggregates, filled in by Build
	Totals Totals

	// Per-image outcomes in processing order
	Entries []Entry
}

// Totals aggregates the batch outcome.
type Totals struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Entry is the outcome for one input image.
type Entry struct {
	Name   string
	Output string
	OK     bool

	// Set on success
	Scale   float64
	Width   int
	Height  int
	OffsetX int
	OffsetY int

	// Set on failure
	Kind  string
	Error string

	Duration time.Duration
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// FromRun starts a Builder populated from an orchestrator run.
func FromRun(run orchestrator.RunResult) *Builder {
	b := NewBuilder().
		WithDirectories(run.InputDir, run.OutputDir).
		WithCanvas(run.Canvas.Width, run.Canvas.Height).
		WithDuration(run.Duration)

	for _, r := range run.Results {
		entry := Entry{
			Name:     r.Job.Name,
			OK:       r.OK(),
			Duration: r.Duration,
		}
		if r.OK() {
			entry.Output = r.Job.OutputPath
			entry.Scale = r.Placement.Scale
			entry.Width = r.Placement.Size.Width
			entry.Height = r.Placement.Size.Height
			entry.OffsetX = r.Placement.Offset.X
			entry.OffsetY = r.Placement.Offset.Y
		} else {
			entry.Kind = r.Kind().String()
			entry.Error = r.Err.Error()
		}
		b.AddEntry(entry)
	}
	return b
}

// WithDirectories sets the input and output directories.
func (b *Builder) WithDirectories(input, output string) *Builder {
	b.summary.InputDir = input
	b.summary.OutputDir = output
	return b
}

// WithCanvas sets the canvas size.
func (b *Builder) WithCanvas(width, height int) *Builder {
	b.summary.CanvasWidth = width
	b.summary.CanvasHeight = height
	return b
}

// WithSegmenter records which segmenter was used.
func (b *Builder) WithSegmenter(name string) *Builder {
	b.summary.Segmenter = name
	return b
}

// WithDuration sets the wall-clock time of the batch.
func (b *Builder) WithDuration(d time.Duration) *Builder {
	b.summary.Totals.Duration = d
	return b
}

// AddEntry appends a per-image outcome.
func (b *Builder) AddEntry(e Entry) *Builder {
	b.summary.Entries = append(b.summary.Entries, e)
	return b
}

// Build computes the totals and returns the constructed Summary.
func (b *Builder) Build() *Summary {
	t := &b.summary.Totals
	t.Total, t.Succeeded, t.Failed = len(b.summary.Entries), 0, 0
	for _, e := range b.summary.Entries {
		if e.OK {
			t.Succeeded++
		} else {
			t.Failed++
		}
	}
	return b.summary
}
