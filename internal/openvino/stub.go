//go:build !openvino

package openvino

import "github.com/dudu/layoutkit/internal/tensor"

// Available reports whether the binary was built with OpenVINO support
const Available = false

// Session is a placeholder so callers compile without the OpenVINO runtime
type Session struct{}

// NewSession always fails; rebuild with -tags openvino to enable the runtime.
func NewSession(xmlPath, binPath, device string) (*Session, error) {
	return nil, ErrUnavailable
}

func (s *Session) InputName() string { return "" }

func (s *Session) OutputNames() []string { return nil }

func (s *Session) Infer(data []float32, shape []int64) ([]tensor.Output, error) {
	return nil, ErrUnavailable
}

func (s *Session) Destroy() error { return nil }
