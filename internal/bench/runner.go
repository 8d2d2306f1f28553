// Package bench measures end-to-end layout latency per runtime and writes
// reproducible run artifacts.
package bench

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dudu/layoutkit/internal/bench/history"
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/monitoring"
)

// CompareMaxImages bounds the image set in compare mode
const CompareMaxImages = 2

// Processor is the SDK surface the harness drives
type Processor interface {
	Process(path string, overlay bool, runtime layout.Runtime) (*layout.Result, error)
}

// Recorder stores run summaries across invocations
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Config selects what a run measures
type Config struct {
	Variant      string
	Runtimes     []layout.Runtime
	Compare      bool
	ImagesDir    string
	OutputRoot   string
	Warmup       int
	RunsPerImage int
	TargetW      int
	TargetH      int
}

// Validate fills defaults and rejects unusable settings
func (c *Config) Validate() error {
	if c.Variant == "" {
		return errors.New("variant name is required")
	}
	if c.Compare && len(c.Runtimes) == 0 {
		c.Runtimes = []layout.Runtime{layout.RuntimeONNX, layout.RuntimeOpenVINO}
	}
	if len(c.Runtimes) == 0 {
		return errors.New("a runtime is required when not comparing")
	}
	if !c.Compare && len(c.Runtimes) > 1 {
		return errors.New("multiple runtimes require compare mode")
	}
	for _, rt := range c.Runtimes {
		if !rt.Valid() {
			return fmt.Errorf("%w: %q", layout.ErrUnsupportedRuntime, string(rt))
		}
	}
	if c.RunsPerImage < 1 {
		c.RunsPerImage = 1
	}
	if c.Warmup < 0 {
		c.Warmup = 0
	}
	if c.TargetW <= 0 || c.TargetH <= 0 {
		return fmt.Errorf("invalid target size %dx%d", c.TargetW, c.TargetH)
	}
	if c.OutputRoot == "" {
		c.OutputRoot = "results"
	}
	return nil
}

// Artifacts summarises one runtime's run
type Artifacts struct {
	RunID           string
	Runtime         layout.Runtime
	OutputDirectory string
	Summary         Summary
}

// Runner executes benchmark runs against a Processor
type Runner struct {
	proc     Processor
	opts     *config.Options
	recorder Recorder
	now      func() time.Time
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithRecorder stores every runtime's summary after it completes
func WithRecorder(r Recorder) RunnerOption {
	return func(rn *Runner) { rn.recorder = r }
}

// WithClock overrides the clock used for run directory names
func WithClock(now func() time.Time) RunnerOption {
	return func(rn *Runner) { rn.now = now }
}

func NewRunner(proc Processor, opts *config.Options, options ...RunnerOption) *Runner {
	r := &Runner{proc: proc, opts: opts, now: time.Now}
	for _, o := range options {
		o(r)
	}
	return r
}

type preparedImage struct {
	name string // source file name, used in timings.csv
	path string // resized copy
}

// Run benchmarks every configured runtime and returns the run directory.
func (r *Runner) Run(ctx context.Context, cfg Config) (string, []*Artifacts, error) {
	if err := cfg.Validate(); err != nil {
		return "", nil, err
	}

	tmpDir, err := os.MkdirTemp("", "layoutbench-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	images, err := r.prepareImages(cfg, tmpDir)
	if err != nil {
		return "", nil, err
	}

	runDir := filepath.Join(cfg.OutputRoot, cfg.Variant, "run-"+r.now().UTC().Format("20060102-150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create run dir: %w", err)
	}

	var artifacts []*Artifacts
	for _, rt := range cfg.Runtimes {
		outDir := runDir
		if cfg.Compare {
			outDir = filepath.Join(runDir, rt.String())
		}
		a, err := r.runRuntime(ctx, cfg, rt, images, outDir)
		if err != nil {
			return runDir, artifacts, fmt.Errorf("%s: %w", rt, err)
		}
		artifacts = append(artifacts, a)
	}

	if cfg.Compare {
		if err := WriteComparison(runDir, artifacts); err != nil {
			return runDir, artifacts, err
		}
	}
	return runDir, artifacts, nil
}

func (r *Runner) prepareImages(cfg Config, tmpDir string) ([]preparedImage, error) {
	sources, err := CollectImages(cfg.ImagesDir)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		blank, err := BlankPage(cfg.TargetW, cfg.TargetH, tmpDir)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("bench: no images in %q, using a blank page", cfg.ImagesDir)
		return []preparedImage{{name: filepath.Base(blank), path: blank}}, nil
	}
	if cfg.Compare && len(sources) > CompareMaxImages {
		sources = sources[:CompareMaxImages]
	}

	images := make([]preparedImage, 0, len(sources))
	for _, src := range sources {
		resized, err := ResizeToTemp(src, cfg.TargetW, cfg.TargetH, tmpDir)
		if err != nil {
			return nil, err
		}
		images = append(images, preparedImage{name: filepath.Base(src), path: resized})
	}
	return images, nil
}

func (r *Runner) runRuntime(ctx context.Context, cfg Config, rt layout.Runtime, images []preparedImage, outDir string) (*Artifacts, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	monitoring.Logf("bench: run %s %s: %d images x %d runs, warmup %d", runID, rt, len(images), cfg.RunsPerImage, cfg.Warmup)

	for i := 0; i < cfg.Warmup; i++ {
		if _, err := r.proc.Process(images[0].path, false, rt); err != nil {
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}

	var timings []Timing
	var ms []float64
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for run := 0; run < cfg.RunsPerImage; run++ {
			res, err := r.proc.Process(img.path, false, rt)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", img.name, err)
			}
			v := float64(res.Metrics.Total()) / float64(time.Millisecond)
			timings = append(timings, Timing{File: img.name, Ms: v})
			ms = append(ms, v)
		}
	}
	summary := Summarize(ms)

	files := []string{TimingsFile, SummaryFile, ModelInfoFile, EnvFile, ConfigFile}
	if err := WriteTimings(filepath.Join(outDir, TimingsFile), timings); err != nil {
		return nil, err
	}
	writes := []struct {
		name string
		v    any
	}{
		{SummaryFile, summary},
		{ModelInfoFile, NewModelInfo(rt, r.opts)},
		{EnvFile, CurrentEnv()},
		{ConfigFile, RunConfig{
			RunID:        runID,
			Runtime:      rt.String(),
			Warmup:       cfg.Warmup,
			RunsPerImage: cfg.RunsPerImage,
			TargetH:      cfg.TargetH,
			TargetW:      cfg.TargetW,
		}},
	}
	for _, w := range writes {
		if err := writeJSON(filepath.Join(outDir, w.name), w.v); err != nil {
			return nil, err
		}
	}
	if err := PlotLatency(filepath.Join(outDir, PlotFile), fmt.Sprintf("%s latency (%s)", rt, cfg.Variant), ms); err != nil {
		return nil, err
	}
	files = append(files, PlotFile)

	if err := WriteManifest(outDir, files); err != nil {
		return nil, err
	}
	logLine := fmt.Sprintf("RUN %s ok, N=%d, id=%s\n", rt, summary.Count, runID)
	if err := os.WriteFile(filepath.Join(outDir, LogsFile), []byte(logLine), 0o644); err != nil {
		return nil, err
	}

	if r.recorder != nil {
		err := r.recorder.Record(ctx, history.Entry{
			RunID:     runID,
			Variant:   cfg.Variant,
			Runtime:   rt.String(),
			Count:     summary.Count,
			MeanMs:    summary.MeanMs,
			MedianMs:  summary.MedianMs,
			P95Ms:     summary.P95Ms,
			CreatedAt: r.now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
	}

	return &Artifacts{
		RunID:           runID,
		Runtime:         rt,
		OutputDirectory: outDir,
		Summary:         summary,
	}, nil
}
