//go:build !openvino

package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/openvino"
)

func TestOpenVINOUnavailable(t *testing.T) {
	opts, err := config.NewOptions("m.onnx", config.OpenVINOOptions{ModelXMLPath: "m.xml"})
	require.NoError(t, err)

	_, err = NewOpenVINO(opts.OpenVINO, opts)
	var be *layout.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, layout.RuntimeOpenVINO, be.Runtime)
	assert.ErrorIs(t, err, openvino.ErrUnavailable)
}
