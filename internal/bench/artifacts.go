package bench

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/version"
)

// Artifact file names written into every run directory
const (
	TimingsFile    = "timings.csv"
	SummaryFile    = "summary.json"
	ModelInfoFile  = "model_info.json"
	EnvFile        = "env.json"
	ConfigFile     = "config.json"
	PlotFile       = "latency.png"
	ManifestFile   = "manifest.json"
	LogsFile       = "logs.txt"
	ComparisonJSON = "comparison.json"
	ComparisonHTML = "comparison.html"
)

// Timing is one measured Process call
type Timing struct {
	File string
	Ms   float64
}

// WriteTimings writes the filename,ms CSV
func WriteTimings(path string, timings []Timing) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"filename", "ms"}); err != nil {
		return err
	}
	for _, t := range timings {
		if err := w.Write([]string{t.File, strconv.FormatFloat(t.Ms, 'f', 3, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ModelInfo describes the model files a runtime ran with
type ModelInfo struct {
	Runtime        string `json:"runtime"`
	ModelPath      string `json:"model_path,omitempty"`
	ModelSizeBytes int64  `json:"model_size_bytes,omitempty"`
	XMLPath        string `json:"xml_path,omitempty"`
	XMLSizeBytes   int64  `json:"xml_size_bytes,omitempty"`
	BinPath        string `json:"bin_path,omitempty"`
	BinSizeBytes   int64  `json:"bin_size_bytes,omitempty"`
	Device         string `json:"device"`
	Precision      string `json:"precision"`
}

// NewModelInfo reports paths and sizes for rt. Missing files have size 0.
func NewModelInfo(rt layout.Runtime, opts *config.Options) ModelInfo {
	info := ModelInfo{Runtime: rt.String(), Device: "CPU"}
	switch rt {
	case layout.RuntimeOpenVINO:
		info.XMLPath = opts.OpenVINO.ModelXMLPath
		info.XMLSizeBytes = fileSize(info.XMLPath)
		info.BinPath = opts.OpenVINO.WeightsBinPath
		info.BinSizeBytes = fileSize(info.BinPath)
		info.Precision = guessPrecision(info.XMLPath)
	default:
		info.ModelPath = opts.ModelPath(rt)
		info.ModelSizeBytes = fileSize(info.ModelPath)
		info.Precision = guessPrecision(info.ModelPath)
	}
	return info
}

func guessPrecision(path string) string {
	if strings.Contains(strings.ToLower(path), "fp16") {
		return "fp16"
	}
	return "fp32"
}

func fileSize(path string) int64 {
	if path == "" {
		return 0
	}
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

// Env describes the host a run executed on
type Env struct {
	Go          string   `json:"go"`
	OS          string   `json:"os"`
	Arch        string   `json:"arch"`
	CPUs        int      `json:"cpus"`
	CPUFeatures []string `json:"cpu_features,omitempty"`
	Layoutkit   string   `json:"layoutkit"`
}

// CurrentEnv captures the running process environment
func CurrentEnv() Env {
	return Env{
		Go:          runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		CPUs:        runtime.NumCPU(),
		CPUFeatures: cpuFeatures(),
		Layoutkit:   version.String(),
	}
}

// cpuFeatures lists the SIMD extensions relevant to inference throughput
func cpuFeatures() []string {
	var features []string
	add := func(ok bool, name string) {
		if ok {
			features = append(features, name)
		}
	}
	add(cpu.X86.HasAVX, "avx")
	add(cpu.X86.HasAVX2, "avx2")
	add(cpu.X86.HasFMA, "fma")
	add(cpu.X86.HasAVX512F, "avx512f")
	add(cpu.X86.HasAVX512VNNI, "avx512vnni")
	add(cpu.ARM64.HasASIMD, "asimd")
	add(cpu.ARM64.HasASIMDDP, "asimddp")
	add(cpu.ARM64.HasSVE, "sve")
	return features
}

// RunConfig records the parameters of a run
type RunConfig struct {
	RunID        string `json:"run_id"`
	Runtime      string `json:"runtime"`
	Warmup       int    `json:"warmup"`
	RunsPerImage int    `json:"runs_per_image"`
	TargetH      int    `json:"target_h"`
	TargetW      int    `json:"target_w"`
}

// ManifestEntry is one emitted file and its digest
type ManifestEntry struct {
	File   string `json:"file"`
	SHA256 string `json:"sha256"`
}

// WriteManifest hashes files (relative to dir) into manifest.json
func WriteManifest(dir string, files []string) error {
	entries := make([]ManifestEntry, 0, len(files))
	for _, name := range files {
		sum, err := sha256File(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		entries = append(entries, ManifestEntry{File: name, SHA256: sum})
	}
	return writeJSON(filepath.Join(dir, ManifestFile), struct {
		Files []ManifestEntry `json:"files"`
	}{entries})
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
