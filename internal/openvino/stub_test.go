//go:build !openvino

package openvino

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubUnavailable(t *testing.T) {
	assert.False(t, Available)

	s, err := NewSession("model.xml", "model.bin", DefaultDevice)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrUnavailable)

	var empty Session
	_, err = empty.Infer([]float32{1}, []int64{1})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NoError(t, empty.Destroy())
}
