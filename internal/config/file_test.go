package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/layoutkit/internal/layout"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "layout.json")

	testJSON := `{
  "onnx_model": "models/heron.onnx",
  "ort_model": "/abs/heron.ort",
  "openvino_xml": "models/ov-ir/heron.xml",
  "language": "it",
  "validate_models": false,
  "score_threshold": 0.4
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0o644))

	opts, err := LoadOptions(configPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "models/heron.onnx"), opts.ONNXModelPath)
	assert.Equal(t, "/abs/heron.ort", opts.ORTModelPath)
	assert.Equal(t, filepath.Join(dir, "models/ov-ir/heron.bin"), opts.OpenVINO.WeightsBinPath)
	assert.Equal(t, layout.Italian, opts.DefaultLanguage)
	assert.Equal(t, float32(0.4), opts.ScoreThreshold)
}

func TestLoadOptionsValidatesModels(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "layout.json")
	require.NoError(t, os.WriteFile(configPath, []byte(`{
  "onnx_model": "m.onnx",
  "openvino_xml": "m.xml",
  "validate_models": true
}`), 0o644))

	opts, err := LoadOptions(configPath)
	require.NoError(t, err)
	assert.True(t, opts.ValidateModelPaths)

	var mnf *layout.ModelNotFoundError
	assert.ErrorAs(t, opts.EnsureModelPaths(), &mnf)
}

func TestLoadOptionsErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadOptions(filepath.Join(dir, "layout.yaml"))
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadOptions(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "stat")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"onnx_model": `), 0o644))
	_, err = LoadOptions(bad)
	assert.ErrorContains(t, err, "parse")

	noXML := filepath.Join(dir, "noxml.json")
	require.NoError(t, os.WriteFile(noXML, []byte(`{"onnx_model": "a.onnx"}`), 0o644))
	_, err = LoadOptions(noXML)
	assert.ErrorContains(t, err, "invalid configuration")

	badLang := filepath.Join(dir, "lang.json")
	require.NoError(t, os.WriteFile(badLang, []byte(`{"onnx_model": "a.onnx", "openvino_xml": "a.xml", "language": "xx"}`), 0o644))
	_, err = LoadOptions(badLang)
	assert.Error(t, err)
}
