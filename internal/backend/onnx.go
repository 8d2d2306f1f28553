package backend

import (
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/inference"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/postprocess"
)

// NewONNX builds a backend for the onnx or ort runtime on ONNX Runtime. The
// process-wide environment is acquired here and released on Close.
func NewONNX(runtime layout.Runtime, modelPath string, opts *config.Options) (Backend, error) {
	format := inference.FormatONNX
	if runtime == layout.RuntimeORT {
		format = inference.FormatORT
	}

	if err := inference.Acquire(opts.RuntimeLibraryPath); err != nil {
		return nil, &layout.BackendError{Runtime: runtime, Err: err}
	}

	session, err := inference.NewSession(modelPath, format)
	if err != nil {
		inference.Release()
		return nil, &layout.BackendError{Runtime: runtime, Err: err}
	}

	return newEngineBackend(
		runtime,
		session.Run,
		postprocess.NewDecoder(opts.ScoreThreshold),
		inference.Release,
		session.Destroy,
	), nil
}
