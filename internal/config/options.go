// Package config holds the model-path configuration consumed by the backend
// factory and the SDK.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/dudu/layoutkit/internal/layout"
)

// DefaultScoreThreshold is the minimum class score a decoded region needs.
const DefaultScoreThreshold = 0.5

// RuntimeLibraryEnv names the environment variable pointing at the ONNX Runtime shared library.
const RuntimeLibraryEnv = "ONNXRUNTIME_LIB"

// OpenVINOOptions locates an OpenVINO IR model.
type OpenVINOOptions struct {
	ModelXMLPath   string
	WeightsBinPath string
}

// NewOpenVINOOptions builds OpenVINO options. When weightsBinPath is blank it is
// derived from the xml path by swapping the extension for ".bin".
func NewOpenVINOOptions(modelXMLPath, weightsBinPath string) (OpenVINOOptions, error) {
	if strings.TrimSpace(modelXMLPath) == "" {
		return OpenVINOOptions{}, errors.New("model XML path must be provided")
	}
	if strings.TrimSpace(weightsBinPath) == "" {
		weightsBinPath = InferWeightsPath(modelXMLPath)
	}
	return OpenVINOOptions{
		ModelXMLPath:   modelXMLPath,
		WeightsBinPath: weightsBinPath,
	}, nil
}

// InferWeightsPath replaces the extension of xmlPath with ".bin".
func InferWeightsPath(xmlPath string) string {
	return strings.TrimSuffix(xmlPath, filepath.Ext(xmlPath)) + ".bin"
}

// EnsureFilesExist checks both IR files.
func (o OpenVINOOptions) EnsureFilesExist() error {
	if err := validatePath(o.ModelXMLPath, "ModelXMLPath"); err != nil {
		return err
	}
	return validatePath(o.WeightsBinPath, "WeightsBinPath")
}

// Options configures every runtime. Treat it as read-only once built.
type Options struct {
	ONNXModelPath      string
	ORTModelPath       string // optional
	OpenVINO           OpenVINOOptions
	DefaultLanguage    layout.Language
	ValidateModelPaths bool

	// RuntimeLibraryPath is the ONNX Runtime shared library loaded on first use.
	RuntimeLibraryPath string
	ScoreThreshold     float32
}

// Option adjusts optional Options fields.
type Option func(*Options)

// WithORTModel sets the ORT-format model path.
func WithORTModel(path string) Option {
	return func(o *Options) { o.ORTModelPath = path }
}

// WithLanguage sets the language results are tagged with.
func WithLanguage(lang layout.Language) Option {
	return func(o *Options) { o.DefaultLanguage = lang }
}

// WithValidation turns upfront model path checks on or off.
func WithValidation(validate bool) Option {
	return func(o *Options) { o.ValidateModelPaths = validate }
}

// WithRuntimeLibrary overrides the ONNX Runtime shared library path.
func WithRuntimeLibrary(path string) Option {
	return func(o *Options) {
		if path != "" {
			o.RuntimeLibraryPath = path
		}
	}
}

// WithScoreThreshold sets the decoder score threshold.
func WithScoreThreshold(threshold float32) Option {
	return func(o *Options) {
		if threshold > 0 {
			o.ScoreThreshold = threshold
		}
	}
}

// NewOptions builds Options. The ONNX model path is required.
func NewOptions(onnxModelPath string, openVINO OpenVINOOptions, opts ...Option) (*Options, error) {
	if strings.TrimSpace(onnxModelPath) == "" {
		return nil, errors.New("ONNX model path must be provided")
	}
	if strings.TrimSpace(openVINO.ModelXMLPath) == "" {
		return nil, errors.New("OpenVINO model XML path must be provided")
	}
	if strings.TrimSpace(openVINO.WeightsBinPath) == "" {
		openVINO.WeightsBinPath = InferWeightsPath(openVINO.ModelXMLPath)
	}

	o := &Options{
		ONNXModelPath:      onnxModelPath,
		OpenVINO:           openVINO,
		DefaultLanguage:    layout.English,
		RuntimeLibraryPath: DefaultRuntimeLibraryPath(),
		ScoreThreshold:     DefaultScoreThreshold,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// EnsureModelPaths checks that every configured model file exists. It does
// nothing when ValidateModelPaths is off. The ORT model is optional and only
// checked when set.
func (o *Options) EnsureModelPaths() error {
	if !o.ValidateModelPaths {
		return nil
	}
	if err := validatePath(o.ONNXModelPath, "ONNXModelPath"); err != nil {
		return err
	}
	if o.ORTModelPath != "" {
		if err := validatePath(o.ORTModelPath, "ORTModelPath"); err != nil {
			return err
		}
	}
	return o.OpenVINO.EnsureFilesExist()
}

// ModelPath returns the primary model file for a runtime.
func (o *Options) ModelPath(r layout.Runtime) string {
	switch r {
	case layout.RuntimeONNX:
		return o.ONNXModelPath
	case layout.RuntimeORT:
		return o.ORTModelPath
	case layout.RuntimeOpenVINO:
		return o.OpenVINO.ModelXMLPath
	}
	return ""
}

// DefaultRuntimeLibraryPath returns $ONNXRUNTIME_LIB or the platform library name.
func DefaultRuntimeLibraryPath() string {
	if p := os.Getenv(RuntimeLibraryEnv); p != "" {
		return p
	}
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}

func validatePath(path, field string) error {
	if strings.TrimSpace(path) == "" {
		return &layout.ModelNotFoundError{Field: field}
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return &layout.ModelNotFoundError{Field: field, Path: path}
	}
	return nil
}

func (o *Options) String() string {
	return fmt.Sprintf("onnx=%s ort=%s openvino=%s|%s lang=%s validate=%t",
		o.ONNXModelPath, o.ORTModelPath, o.OpenVINO.ModelXMLPath, o.OpenVINO.WeightsBinPath,
		o.DefaultLanguage, o.ValidateModelPaths)
}
