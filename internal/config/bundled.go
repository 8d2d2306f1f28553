package config

import (
	"os"
	"path/filepath"

	"github.com/dudu/layoutkit/internal/layout"
)

// Bundled model file names shipped next to the executable.
const (
	OptimizedONNXFileName       = "heron-optimized.onnx"
	ConvertedONNXFileName       = "heron-converted.onnx"
	OptimizedFP16ONNXFileName   = "heron-optimized-fp16.onnx"
	OptimizedORTFileName        = "heron-optimized.ort"
	OptimizedRuntimeORTFileName = "heron-optimized.with_runtime_opt.ort"
	OpenVINOXMLFileName         = "heron-converted.xml"
	OpenVINOBinFileName         = "heron-converted.bin"
)

// ModelsRoot is the models directory beside the running executable.
func ModelsRoot() string {
	exe, err := os.Executable()
	if err != nil {
		return "models"
	}
	return filepath.Join(filepath.Dir(exe), "models")
}

// OpenVINORoot holds the IR pair.
func OpenVINORoot() string {
	return filepath.Join(ModelsRoot(), "ov-ir")
}

// BundledFiles lists every model file the packaged layout expects.
func BundledFiles() []string {
	root := ModelsRoot()
	return []string{
		filepath.Join(root, OptimizedONNXFileName),
		filepath.Join(root, ConvertedONNXFileName),
		filepath.Join(root, OptimizedFP16ONNXFileName),
		filepath.Join(root, OptimizedORTFileName),
		filepath.Join(root, OptimizedRuntimeORTFileName),
		filepath.Join(OpenVINORoot(), OpenVINOXMLFileName),
		filepath.Join(OpenVINORoot(), OpenVINOBinFileName),
	}
}

// EnsureBundledFiles returns a ModelNotFoundError for the first missing file.
func EnsureBundledFiles() error {
	for _, path := range BundledFiles() {
		if err := validatePath(path, filepath.Base(path)); err != nil {
			return err
		}
	}
	return nil
}

// BundledOptions points every runtime at the bundled models.
func BundledOptions(lang layout.Language, validate, useRuntimeOptimizedORT bool) (*Options, error) {
	ortName := OptimizedORTFileName
	if useRuntimeOptimizedORT {
		ortName = OptimizedRuntimeORTFileName
	}
	ov, err := NewOpenVINOOptions(
		filepath.Join(OpenVINORoot(), OpenVINOXMLFileName),
		filepath.Join(OpenVINORoot(), OpenVINOBinFileName),
	)
	if err != nil {
		return nil, err
	}
	return NewOptions(
		filepath.Join(ModelsRoot(), OptimizedONNXFileName),
		ov,
		WithORTModel(filepath.Join(ModelsRoot(), ortName)),
		WithLanguage(lang),
		WithValidation(validate),
	)
}
