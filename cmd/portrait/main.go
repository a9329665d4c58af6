// Package main provides the CLI entry point for portrait.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/portrait/pkg/adapters/filesink"
	"github.com/user/portrait/pkg/adapters/ggrenderer"
	"github.com/user/portrait/pkg/adapters/httpsegmenter"
	"github.com/user/portrait/pkg/adapters/logger"
	"github.com/user/portrait/pkg/adapters/nullsink"
	"github.com/user/portrait/pkg/adapters/onnxsegmenter"
	"github.com/user/portrait/pkg/adapters/osfilesystem"
	"github.com/user/portrait/pkg/config"
	"github.com/user/portrait/pkg/orchestrator"
	"github.com/user/portrait/pkg/ports"
	"github.com/user/portrait/pkg/stages/background"
	"github.com/user/portrait/pkg/stages/composite"
	"github.com/user/portrait/pkg/stages/crop"
	"github.com/user/portrait/pkg/stages/segment"
	"github.com/user/portrait/pkg/summarizer"
)

// CLI defines the command-line interface.
type CLI struct {
	// Required arguments
	InputDir  string `arg:"" name:"input_dir" help:"Directory containing the source photos."`
	OutputDir string `arg:"" name:"output_dir" help:"Directory where portraits are written."`

	// Configuration
	Config  string `short:"c" type:"path" help:"YAML configuration file."`
	Workers *int   `short:"w" help:"Number of images processed in parallel (default: number of CPUs)."`

	// Segmentation
	Segmenter *string        `short:"s" help:"Background remover to use (onnx, http)."`
	Model     *string        `help:"Path to the U2-Net ONNX model."`
	OrtLib    *string        `name:"ort-lib" help:"Path to the onnxruntime shared library."`
	Endpoint  *string        `help:"URL of a rembg-compatible removal endpoint."`
	Timeout   *time.Duration `help:"Timeout for one request to the removal endpoint."`

	// Debug and reporting
	Debug    bool    `short:"d" help:"Save intermediate images for each photo."`
	DebugDir *string `help:"Directory for debug output."`
	Report   string  `short:"r" type:"path" help:"Write a Markdown batch report to this file."`
	Strict   bool    `help:"Exit with an error when any image fails."`

	// Logging options
	LogLevel string `short:"l" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`

	Version kong.VersionFlag `short:"V" help:"Show version information."`
}

var version = "dev"

func main() {
	cli := CLI{}

	parser, err := newParser(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("portrait"),
		kong.Description(l10n.T("Turn a folder of photos into uniform half-body portraits.")),
		kong.UsageOnError(),
		kong.Vars{"version": l10n.F("portrait version %s", version)},
	}, options...)

	parser, err := kong.New(cli, options...)
	if err != nil {
		return nil, err
	}
	localizeHelp(parser.Model.Node)
	return parser, nil
}

// localizeHelp translates flag and argument help in place.
func localizeHelp(node *kong.Node) {
	node.Help = l10n.T(node.Help)
	for _, flag := range node.Flags {
		flag.Help = l10n.T(flag.Help)
	}
	for _, arg := range node.Positional {
		arg.Help = l10n.T(arg.Help)
	}
	for _, child := range node.Children {
		localizeHelp(child)
	}
}

// Run processes every photo in InputDir.
func (cli *CLI) Run() error {
	cfg, err := cli.buildConfig()
	if err != nil {
		return err
	}

	// Create logger
	var log ports.Logger
	if cli.Quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(ports.ParseLogLevel(cli.LogLevel))
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Create adapters
	fs := osfilesystem.New()
	renderer := ggrenderer.New(ggrenderer.WithAutoOrientation(cfg.AutoOrient))

	seg := newLazySegmenter(func() (ports.Segmenter, func() error, error) {
		return newSegmenter(cfg.Segmenter, log)
	})
	defer seg.Close()

	// Create debug sink
	var sink ports.DebugSink
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	} else {
		sink = nullsink.New()
	}

	// Create stages
	segmentStage := segment.NewStage(seg, sink, log, cfg.Segmenter.MaxConcurrent)
	cropStage := crop.NewStage(sink, log)
	backgroundStage := background.NewStage(log)
	compositeStage := composite.NewStage(renderer, sink, log)

	// Create orchestrator
	orch := orchestrator.New(
		segmentStage,
		cropStage,
		backgroundStage,
		compositeStage,
		renderer,
		fs,
		log,
	)

	// The segmenter is only loaded once there is something to segment.
	orchCfg := cfg.ToOrchestratorConfig(cli.InputDir, cli.OutputDir)
	jobs, err := orch.Discover(orchCfg)
	if err != nil {
		return err
	}
	if len(jobs) > 0 {
		if err := seg.Open(); err != nil {
			return err
		}
	}

	// Run batch
	run, runErr := orch.Run(ctx, orchCfg)
	if runErr != nil && run.Total() == 0 {
		return runErr
	}

	if cli.Report != "" {
		summary := summarizer.FromRun(run).WithSegmenter(cfg.Segmenter.Kind).Build()
		formatter := summarizer.NewMarkdownFormatter(
			summarizer.WithTranslator(l10n.T),
			summarizer.WithVersion(version),
		)
		if err := summarizer.NewWriter(formatter, fs).Write(cli.Report, summary); err != nil {
			return err
		}
		log.Info("Report saved to %s", cli.Report)
	}

	if runErr != nil {
		return runErr
	}
	if cli.Strict && run.Failed > 0 {
		return fmt.Errorf("%d of %d images failed", run.Failed, run.Total())
	}
	return nil
}

// buildConfig loads the config file, if any, and applies CLI overrides.
func (cli *CLI) buildConfig() (config.Config, error) {
	cfg := config.Defaults()
	if cli.Config != "" {
		loaded, err := config.LoadFromFile(cli.Config)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if cli.Workers != nil {
		cfg.Workers = *cli.Workers
	}
	if cli.Segmenter != nil {
		cfg.Segmenter.Kind = *cli.Segmenter
	}
	if cli.Model != nil {
		cfg.Segmenter.ModelPath = *cli.Model
	}
	if cli.OrtLib != nil {
		cfg.Segmenter.LibraryPath = *cli.OrtLib
	}
	if cli.Endpoint != nil {
		cfg.Segmenter.Endpoint = *cli.Endpoint
	}
	if cli.Timeout != nil {
		cfg.Segmenter.Timeout = *cli.Timeout
	}
	if cli.Debug {
		cfg.Debug = true
	}
	if cli.DebugDir != nil {
		cfg.DebugDir = *cli.DebugDir
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSegmenter builds the configured segmenter and a function releasing it.
func newSegmenter(cfg config.SegmenterConfig, log ports.Logger) (ports.Segmenter, func() error, error) {
	switch cfg.Kind {
	case config.SegmenterHTTP:
		log.Info("Using segmentation server %s", cfg.Endpoint)
		seg := httpsegmenter.New(cfg.Endpoint, httpsegmenter.WithTimeout(cfg.Timeout))
		return seg, func() error { return nil }, nil
	case config.SegmenterONNX:
		seg, err := onnxsegmenter.New(onnxsegmenter.Options{
			ModelPath:   cfg.ModelPath,
			LibraryPath: cfg.LibraryPath,
		}, log.WithComponent("onnx"))
		if err != nil {
			return nil, nil, err
		}
		return seg, seg.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown segmenter kind %q", cfg.Kind)
	}
}
