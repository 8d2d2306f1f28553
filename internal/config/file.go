package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dudu/layoutkit/internal/layout"
)

// fileOptions is the on-disk JSON schema for Options.
type fileOptions struct {
	ONNXModel      string           `json:"onnx_model"`
	ORTModel       string           `json:"ort_model,omitempty"`
	OpenVINOXML    string           `json:"openvino_xml"`
	OpenVINOBin    string           `json:"openvino_bin,omitempty"`
	Language       *layout.Language `json:"language,omitempty"`
	ValidateModels bool             `json:"validate_models"`
	RuntimeLibrary string           `json:"runtime_library,omitempty"`
	ScoreThreshold float32          `json:"score_threshold,omitempty"`
}

// LoadOptions reads Options from a JSON file. Relative model paths are
// resolved against the file's directory.
func LoadOptions(path string) (*Options, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var fo fileOptions
	if err := json.Unmarshal(data, &fo); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	base := filepath.Dir(cleanPath)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}

	ov, err := NewOpenVINOOptions(resolve(fo.OpenVINOXML), resolve(fo.OpenVINOBin))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lang := layout.English
	if fo.Language != nil {
		lang = *fo.Language
	}

	opts, err := NewOptions(resolve(fo.ONNXModel), ov,
		WithORTModel(resolve(fo.ORTModel)),
		WithLanguage(lang),
		WithValidation(fo.ValidateModels),
		WithRuntimeLibrary(fo.RuntimeLibrary),
		WithScoreThreshold(fo.ScoreThreshold),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return opts, nil
}
