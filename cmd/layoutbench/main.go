package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dudu/layoutkit/internal/bench"
	"github.com/dudu/layoutkit/internal/bench/history"
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/sdk"
)

type Config struct {
	Variant        string
	Runtime        string
	Compare        bool
	Images         string
	Output         string
	Warmup         int
	RunsPerImage   int
	TargetH        int
	TargetW        int
	ONNXModel      string
	ORTModel       string
	OpenVINOXML    string
	OpenVINOBin    string
	Library        string
	History        string
	ValidateModels bool
}

func main() {
	cfg := parseFlags()

	if cfg.Variant == "" {
		fmt.Fprintln(os.Stderr, "Error: --variant-name is required")
		flag.Usage()
		os.Exit(1)
	}
	if !cfg.Compare && cfg.Runtime == "" {
		fmt.Fprintln(os.Stderr, "Error: --runtime is required when --compare is not specified")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Variant, "variant-name", "", "Name of the model variant under test (required)")
	flag.StringVar(&cfg.Runtime, "runtime", "", "Runtime to benchmark: onnx, ort or openvino")
	flag.BoolVar(&cfg.Compare, "compare", false, "Benchmark onnx and openvino side by side")
	flag.StringVar(&cfg.Images, "images", "./dataset", "Directory of page images")
	flag.StringVar(&cfg.Output, "output", "results", "Root directory for run artifacts")
	flag.IntVar(&cfg.Warmup, "warmup", 1, "Untimed warmup calls per runtime")
	flag.IntVar(&cfg.RunsPerImage, "runs-per-image", 1, "Timed calls per image")
	flag.IntVar(&cfg.TargetH, "target-h", 640, "Height images are resized to")
	flag.IntVar(&cfg.TargetW, "target-w", 640, "Width images are resized to")
	flag.StringVar(&cfg.ONNXModel, "onnx-model", "models/heron-optimized.onnx", "ONNX model path")
	flag.StringVar(&cfg.ORTModel, "ort-model", "models/heron-optimized.with_runtime_opt.ort", "ORT model path")
	flag.StringVar(&cfg.OpenVINOXML, "openvino-xml", "models/ov-ir/heron-optimized.xml", "OpenVINO IR graph path")
	flag.StringVar(&cfg.OpenVINOBin, "openvino-bin", "", "OpenVINO IR weights path (default: next to the xml)")
	flag.StringVar(&cfg.Library, "lib", "", "ONNX Runtime shared library")
	flag.StringVar(&cfg.History, "history", "", "sqlite database recording run summaries")
	flag.BoolVar(&cfg.ValidateModels, "validate-models", false, "Fail early when model files are missing")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "layoutbench - layout runtime latency benchmark\n\n")
		fmt.Fprintf(os.Stderr, "Usage: layoutbench --variant-name NAME (--runtime RT | --compare) [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()
	return cfg
}

func run(cfg Config) error {
	ov, err := config.NewOpenVINOOptions(cfg.OpenVINOXML, cfg.OpenVINOBin)
	if err != nil {
		return err
	}
	opts, err := config.NewOptions(cfg.ONNXModel, ov,
		config.WithORTModel(cfg.ORTModel),
		config.WithValidation(cfg.ValidateModels),
		config.WithRuntimeLibrary(cfg.Library),
	)
	if err != nil {
		return err
	}

	benchCfg := bench.Config{
		Variant:      cfg.Variant,
		Compare:      cfg.Compare,
		ImagesDir:    cfg.Images,
		OutputRoot:   cfg.Output,
		Warmup:       cfg.Warmup,
		RunsPerImage: cfg.RunsPerImage,
		TargetW:      cfg.TargetW,
		TargetH:      cfg.TargetH,
	}
	if !cfg.Compare {
		rt, err := layout.ParseRuntime(cfg.Runtime)
		if err != nil {
			return err
		}
		benchCfg.Runtimes = []layout.Runtime{rt}
	}

	s, err := sdk.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create sdk: %w", err)
	}
	defer s.Close()

	var runnerOpts []bench.RunnerOption
	if cfg.History != "" {
		store, err := history.Open(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		runnerOpts = append(runnerOpts, bench.WithRecorder(store))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runDir, artifacts, err := bench.NewRunner(s, opts, runnerOpts...).Run(ctx, benchCfg)
	if err != nil {
		return err
	}

	for _, a := range artifacts {
		fmt.Printf("%-9s n=%-4d mean=%7.2fms median=%7.2fms p95=%7.2fms  %s\n",
			a.Runtime, a.Summary.Count, a.Summary.MeanMs, a.Summary.MedianMs, a.Summary.P95Ms, a.OutputDirectory)
	}
	fmt.Printf("OK: %s\n", runDir)
	return nil
}
