package backend

import (
	"fmt"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/monitoring"
)

// Factory creates a backend for a runtime
type Factory interface {
	Create(runtime layout.Runtime) (Backend, error)
}

// FactoryFunc adapts a function to Factory
type FactoryFunc func(runtime layout.Runtime) (Backend, error)

func (f FactoryFunc) Create(runtime layout.Runtime) (Backend, error) {
	return f(runtime)
}

// ONNXConstructor builds the onnx and ort backends
type ONNXConstructor func(runtime layout.Runtime, modelPath string, opts *config.Options) (Backend, error)

// OpenVINOConstructor builds the openvino backend
type OpenVINOConstructor func(ov config.OpenVINOOptions, opts *config.Options) (Backend, error)

// FactoryOption configures the default factory
type FactoryOption func(*defaultFactory)

// WithONNXConstructor replaces the ONNX Runtime backend constructor
func WithONNXConstructor(c ONNXConstructor) FactoryOption {
	return func(f *defaultFactory) {
		if c != nil {
			f.newONNX = c
		}
	}
}

// WithOpenVINOConstructor replaces the OpenVINO backend constructor
func WithOpenVINOConstructor(c OpenVINOConstructor) FactoryOption {
	return func(f *defaultFactory) {
		if c != nil {
			f.newOpenVINO = c
		}
	}
}

type defaultFactory struct {
	opts        *config.Options
	newONNX     ONNXConstructor
	newOpenVINO OpenVINOConstructor
}

// NewFactory validates the configured model paths and returns a factory
// dispatching on runtime.
func NewFactory(opts *config.Options, options ...FactoryOption) (Factory, error) {
	if opts == nil {
		return nil, fmt.Errorf("backend factory: nil options")
	}
	if err := opts.EnsureModelPaths(); err != nil {
		return nil, err
	}

	f := &defaultFactory{
		opts:        opts,
		newONNX:     NewONNX,
		newOpenVINO: NewOpenVINO,
	}
	for _, o := range options {
		o(f)
	}
	return f, nil
}

func (f *defaultFactory) Create(runtime layout.Runtime) (Backend, error) {
	switch runtime {
	case layout.RuntimeONNX:
		monitoring.Logf("backend: creating %s from %s", runtime, f.opts.ONNXModelPath)
		return f.newONNX(runtime, f.opts.ONNXModelPath, f.opts)
	case layout.RuntimeORT:
		if f.opts.ORTModelPath == "" {
			return nil, &layout.ModelNotFoundError{Field: "ORTModelPath"}
		}
		monitoring.Logf("backend: creating %s from %s", runtime, f.opts.ORTModelPath)
		return f.newONNX(runtime, f.opts.ORTModelPath, f.opts)
	case layout.RuntimeOpenVINO:
		ov := f.opts.OpenVINO
		if ov.WeightsBinPath == "" {
			ov.WeightsBinPath = config.InferWeightsPath(ov.ModelXMLPath)
		}
		monitoring.Logf("backend: creating %s from %s", runtime, ov.ModelXMLPath)
		return f.newOpenVINO(ov, f.opts)
	default:
		return nil, fmt.Errorf("%w: %q", layout.ErrUnsupportedRuntime, string(runtime))
	}
}
