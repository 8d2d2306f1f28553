package backend

import (
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/openvino"
	"github.com/dudu/layoutkit/internal/postprocess"
)

// NewOpenVINO compiles the IR model for the CPU device
func NewOpenVINO(ov config.OpenVINOOptions, opts *config.Options) (Backend, error) {
	session, err := openvino.NewSession(ov.ModelXMLPath, ov.WeightsBinPath, openvino.DefaultDevice)
	if err != nil {
		return nil, &layout.BackendError{Runtime: layout.RuntimeOpenVINO, Err: err}
	}

	return newEngineBackend(
		layout.RuntimeOpenVINO,
		session.Infer,
		postprocess.NewDecoder(opts.ScoreThreshold),
		session.Destroy,
	), nil
}
