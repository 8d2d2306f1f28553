package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

type stubBackend struct {
	closed int
}

func (s *stubBackend) Infer(*tensor.Tensor) ([]layout.BoundingBox, error) { return nil, nil }

func (s *stubBackend) Close() error {
	s.closed++
	return nil
}

type call struct {
	runtime layout.Runtime
	path    string
}

func newTestFactory(t *testing.T, opts *config.Options) (Factory, *[]call) {
	t.Helper()
	var calls []call
	f, err := NewFactory(opts,
		WithONNXConstructor(func(rt layout.Runtime, path string, _ *config.Options) (Backend, error) {
			calls = append(calls, call{rt, path})
			return &stubBackend{}, nil
		}),
		WithOpenVINOConstructor(func(ov config.OpenVINOOptions, _ *config.Options) (Backend, error) {
			calls = append(calls, call{layout.RuntimeOpenVINO, ov.ModelXMLPath + "|" + ov.WeightsBinPath})
			return &stubBackend{}, nil
		}),
	)
	require.NoError(t, err)
	return f, &calls
}

func TestFactoryDispatch(t *testing.T) {
	opts, err := config.NewOptions("m.onnx", config.OpenVINOOptions{ModelXMLPath: "ir/m.xml"},
		config.WithORTModel("m.ort"))
	require.NoError(t, err)
	opts.OpenVINO.WeightsBinPath = ""

	f, calls := newTestFactory(t, opts)
	for _, rt := range layout.Runtimes {
		b, err := f.Create(rt)
		require.NoError(t, err)
		assert.NotNil(t, b)
	}

	assert.Equal(t, []call{
		{layout.RuntimeONNX, "m.onnx"},
		{layout.RuntimeORT, "m.ort"},
		{layout.RuntimeOpenVINO, "ir/m.xml|ir/m.bin"},
	}, *calls)
}

func TestFactoryUnsupportedRuntime(t *testing.T) {
	opts, err := config.NewOptions("m.onnx", config.OpenVINOOptions{ModelXMLPath: "m.xml"})
	require.NoError(t, err)
	f, calls := newTestFactory(t, opts)

	_, err = f.Create(layout.Runtime("tensorrt"))
	assert.ErrorIs(t, err, layout.ErrUnsupportedRuntime)
	assert.Empty(t, *calls)
}

func TestFactoryORTWithoutModel(t *testing.T) {
	opts, err := config.NewOptions("m.onnx", config.OpenVINOOptions{ModelXMLPath: "m.xml"})
	require.NoError(t, err)
	f, calls := newTestFactory(t, opts)

	_, err = f.Create(layout.RuntimeORT)
	var mnf *layout.ModelNotFoundError
	require.ErrorAs(t, err, &mnf)
	assert.Equal(t, "ORTModelPath", mnf.Field)
	assert.Empty(t, *calls)
}

func TestNewFactoryValidatesPaths(t *testing.T) {
	dir := t.TempDir()
	onnx := filepath.Join(dir, "m.onnx")
	require.NoError(t, os.WriteFile(onnx, []byte("x"), 0o644))

	opts, err := config.NewOptions(onnx, config.OpenVINOOptions{ModelXMLPath: filepath.Join(dir, "m.xml")},
		config.WithValidation(true))
	require.NoError(t, err)

	_, err = NewFactory(opts)
	var mnf *layout.ModelNotFoundError
	assert.ErrorAs(t, err, &mnf)

	_, err = NewFactory(nil)
	assert.Error(t, err)
}

func TestFactoryFunc(t *testing.T) {
	var got layout.Runtime
	f := FactoryFunc(func(rt layout.Runtime) (Backend, error) {
		got = rt
		return &stubBackend{}, nil
	})
	_, err := f.Create(layout.RuntimeORT)
	require.NoError(t, err)
	assert.Equal(t, layout.RuntimeORT, got)
}
