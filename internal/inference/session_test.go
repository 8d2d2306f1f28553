package inference

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/layoutkit/internal/config"
)

func requireRuntime(t *testing.T) string {
	t.Helper()
	lib := os.Getenv(config.RuntimeLibraryEnv)
	if lib == "" {
		t.Skipf("%s not set; skipping ONNX Runtime tests", config.RuntimeLibraryEnv)
	}
	return lib
}

func TestModelFormatString(t *testing.T) {
	assert.Equal(t, "onnx", FormatONNX.String())
	assert.Equal(t, "ort", FormatORT.String())
}

func TestOptimizationLevel(t *testing.T) {
	assert.Equal(t, ort.GraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll), optimizationLevel(FormatONNX))
	assert.Equal(t, ort.GraphOptimizationLevel(ort.GraphOptimizationLevelDisableAll), optimizationLevel(FormatORT))
}

func TestReleaseWithoutAcquire(t *testing.T) {
	assert.NoError(t, Release())
}

func TestAcquireIsRefcounted(t *testing.T) {
	lib := requireRuntime(t)

	require.NoError(t, Acquire(lib))
	require.NoError(t, Acquire(lib))
	assert.True(t, ort.IsInitialized())

	require.NoError(t, Release())
	assert.True(t, ort.IsInitialized(), "environment stays up while referenced")

	require.NoError(t, Release())
	assert.False(t, ort.IsInitialized())
}

func TestNewSessionMissingModel(t *testing.T) {
	lib := requireRuntime(t)
	require.NoError(t, Acquire(lib))
	defer Release()

	_, err := NewSession("does-not-exist.onnx", FormatONNX)
	assert.Error(t, err)

	_, err = Inspect("does-not-exist.onnx")
	assert.Error(t, err)
}
