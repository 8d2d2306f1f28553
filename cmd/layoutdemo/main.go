package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/openvino"
	"github.com/dudu/layoutkit/internal/sdk"
	"github.com/dudu/layoutkit/internal/ui"
	"github.com/dudu/layoutkit/internal/version"
)

func init() {
	// Lock the main goroutine to the main OS thread.
	// This is required on macOS for OpenCV's highgui (window creation).
	runtime.LockOSThread()
}

type Config struct {
	Image          string
	Runtimes       string
	ConfigFile     string
	ONNXModel      string
	ORTModel       string
	OpenVINOXML    string
	OpenVINOBin    string
	Language       string
	OverlayDir     string
	Library        string
	Threshold      float64
	Show           bool
	ValidateModels bool

	// flags given on the command line, by long name
	set map[string]bool
}

var shorthands = map[string]string{"i": "image", "r": "runtime", "c": "config", "o": "overlay"}

func (c Config) isSet(name string) bool {
	return c.set[name]
}

func main() {
	cfg := parseFlags()

	if cfg.Image == "" {
		fmt.Fprintln(os.Stderr, "Error: --image flag is required")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Image, "image", "", "Page image to analyse (required)")
	flag.StringVar(&cfg.Image, "i", "", "Page image to analyse (shorthand)")
	flag.StringVar(&cfg.Runtimes, "runtime", defaultRuntimes(), "Comma-separated runtimes to run")
	flag.StringVar(&cfg.Runtimes, "r", defaultRuntimes(), "Runtimes (shorthand)")
	flag.StringVar(&cfg.ConfigFile, "config", "", "JSON options file; other model flags override it")
	flag.StringVar(&cfg.ConfigFile, "c", "", "JSON options file (shorthand)")
	flag.StringVar(&cfg.ONNXModel, "onnx-model", "", "ONNX model path (default: bundled)")
	flag.StringVar(&cfg.ORTModel, "ort-model", "", "ORT model path (default: bundled)")
	flag.StringVar(&cfg.OpenVINOXML, "openvino-xml", "", "OpenVINO IR graph path (default: bundled)")
	flag.StringVar(&cfg.OpenVINOBin, "openvino-bin", "", "OpenVINO IR weights path (default: next to the xml)")
	flag.StringVar(&cfg.Language, "language", "en", "Document language tag")
	flag.StringVar(&cfg.OverlayDir, "overlay", "", "Directory to write overlay PNGs into")
	flag.StringVar(&cfg.OverlayDir, "o", "", "Overlay directory (shorthand)")
	flag.StringVar(&cfg.Library, "lib", "", "ONNX Runtime shared library")
	flag.Float64Var(&cfg.Threshold, "threshold", config.DefaultScoreThreshold, "Minimum box score")
	flag.BoolVar(&cfg.Show, "show", false, "Show the first overlay in a preview window")
	flag.BoolVar(&cfg.ValidateModels, "validate-models", false, "Fail early when model files are missing")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "layoutdemo %s - document layout detection\n\n", version.String())
		fmt.Fprintf(os.Stderr, "Usage: layoutdemo --image page.png [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  layoutdemo --image page.png\n")
		fmt.Fprintf(os.Stderr, "  layoutdemo --image page.png --runtime onnx --overlay out --show\n")
		fmt.Fprintf(os.Stderr, "  layoutdemo --image page.png --config layout.json\n")
	}

	flag.Parse()

	cfg.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		name := f.Name
		if long, ok := shorthands[name]; ok {
			name = long
		}
		cfg.set[name] = true
	})
	return cfg
}

// defaultRuntimes leaves openvino out of binaries built without it
func defaultRuntimes() string {
	if !openvino.Available {
		return "onnx,ort"
	}
	return "onnx,ort,openvino"
}

// resolveOptions starts from the --config file, or the bundled models when
// none is given, and applies the model flags given on the command line.
func resolveOptions(cfg Config) (*config.Options, error) {
	ov, err := overrides(cfg)
	if err != nil {
		return nil, err
	}

	var opts *config.Options
	if cfg.ConfigFile != "" {
		opts, err = config.LoadOptions(cfg.ConfigFile)
	} else {
		if cfg.ValidateModels && ov.Empty() {
			if err := config.EnsureBundledFiles(); err != nil {
				return nil, err
			}
		}
		opts, err = config.BundledOptions(layout.English, cfg.ValidateModels, true)
	}
	if err != nil {
		return nil, err
	}

	if err := ov.Apply(opts); err != nil {
		return nil, err
	}
	return opts, nil
}

// overrides collects the model flags. Language, threshold and validation
// override a --config file only when given explicitly.
func overrides(cfg Config) (config.Overrides, error) {
	ov := config.Overrides{
		ONNXModel:      cfg.ONNXModel,
		ORTModel:       cfg.ORTModel,
		OpenVINOXML:    cfg.OpenVINOXML,
		OpenVINOBin:    cfg.OpenVINOBin,
		RuntimeLibrary: cfg.Library,
	}
	bundled := cfg.ConfigFile == ""

	if bundled || cfg.isSet("language") {
		lang, err := layout.ParseLanguage(cfg.Language)
		if err != nil {
			return ov, err
		}
		ov.Language = &lang
	}
	if bundled || cfg.isSet("threshold") {
		th := float32(cfg.Threshold)
		ov.ScoreThreshold = &th
	}
	if cfg.isSet("validate-models") {
		ov.ValidateModels = &cfg.ValidateModels
	}
	return ov, nil
}

func parseRuntimes(list string) ([]layout.Runtime, error) {
	var runtimes []layout.Runtime
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		rt, err := layout.ParseRuntime(part)
		if err != nil {
			return nil, err
		}
		runtimes = append(runtimes, rt)
	}
	if len(runtimes) == 0 {
		return nil, fmt.Errorf("no runtimes given")
	}
	return runtimes, nil
}

func run(cfg Config) error {
	runtimes, err := parseRuntimes(cfg.Runtimes)
	if err != nil {
		return err
	}
	opts, err := resolveOptions(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Options: %s\n", opts)

	s, err := sdk.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create sdk: %w", err)
	}
	defer s.Close()

	wantOverlay := cfg.OverlayDir != "" || cfg.Show
	if cfg.OverlayDir != "" {
		if err := os.MkdirAll(cfg.OverlayDir, 0o755); err != nil {
			return err
		}
	}

	var first *layout.Result
	var firstRuntime layout.Runtime
	failures := 0
	for _, rt := range runtimes {
		res, err := s.Process(cfg.Image, wantOverlay, rt)
		if err != nil {
			fmt.Printf("%-9s ❌ %v\n", rt, err)
			failures++
			continue
		}

		m := res.Metrics
		fmt.Printf("%-9s boxes=%-3d pre=%6.1fms infer=%7.1fms overlay=%5.1fms total=%7.1fms\n",
			rt, len(res.Boxes),
			ms(m.Preprocess), ms(m.Inference), ms(m.Overlay), ms(m.Total()))

		if first == nil {
			first, firstRuntime = res, rt
		} else if len(res.Boxes) != len(first.Boxes) {
			fmt.Printf("          ⚠ box count differs from %s (%d vs %d)\n", firstRuntime, len(res.Boxes), len(first.Boxes))
		}

		if cfg.OverlayDir != "" && res.Overlay != nil {
			stem := strings.TrimSuffix(filepath.Base(cfg.Image), filepath.Ext(cfg.Image))
			out := filepath.Join(cfg.OverlayDir, fmt.Sprintf("%s-%s.png", stem, rt))
			if err := imaging.Save(res.Overlay, out); err != nil {
				return fmt.Errorf("failed to save overlay: %w", err)
			}
			fmt.Printf("          overlay written to %s\n", out)
		}
	}

	if first == nil {
		return fmt.Errorf("all %d runtimes failed", failures)
	}

	if cfg.Show && first.Overlay != nil {
		window := ui.NewWindow("layoutdemo - " + firstRuntime.String())
		defer window.Close()
		if err := window.Show(first.Overlay, first.Boxes); err != nil {
			return err
		}
		fmt.Println("\nPress any key in the window to quit")
		window.WaitKey(0)
	}
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
