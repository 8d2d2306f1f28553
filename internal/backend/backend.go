// Package backend runs layout inference on a native engine. Each runtime
// (onnx, ort, openvino) is a Backend; a Factory builds them from Options.
package backend

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/postprocess"
	"github.com/dudu/layoutkit/internal/tensor"
)

// Backend runs one tensor through a model and returns decoded boxes in tensor
// pixel space. Implementations are not safe for concurrent Infer calls.
type Backend interface {
	Infer(t *tensor.Tensor) ([]layout.BoundingBox, error)
	Close() error
}

type inferFunc func(data []float32, shape []int64) ([]tensor.Output, error)

// engineBackend adapts a native session to Backend. Cleanup functions are
// run in reverse order on Close.
type engineBackend struct {
	runtime layout.Runtime
	infer   inferFunc
	decoder *postprocess.Decoder
	cleanup []func() error

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    bool
}

func newEngineBackend(runtime layout.Runtime, infer inferFunc, decoder *postprocess.Decoder, cleanup ...func() error) *engineBackend {
	if decoder == nil {
		decoder = postprocess.NewDecoder(0)
	}
	return &engineBackend{
		runtime: runtime,
		infer:   infer,
		decoder: decoder,
		cleanup: cleanup,
	}
}

func (b *engineBackend) Infer(t *tensor.Tensor) ([]layout.BoundingBox, error) {
	if t == nil {
		return nil, fmt.Errorf("%s: nil tensor", b.runtime)
	}
	data := t.Data()
	if data == nil {
		return nil, fmt.Errorf("%s: tensor already released", b.runtime)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("%s: %w", b.runtime, layout.ErrClosed)
	}

	outputs, err := b.infer(data, t.Shape())
	if err != nil {
		return nil, fmt.Errorf("%s inference: %w", b.runtime, err)
	}
	return b.decoder.Decode(outputs, t.Width(), t.Height()), nil
}

func (b *engineBackend) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.closed = true

		var errs []error
		for i := len(b.cleanup) - 1; i >= 0; i-- {
			if err := b.cleanup[i](); err != nil {
				errs = append(errs, err)
			}
		}
		b.cleanup = nil
		b.closeErr = errors.Join(errs...)
	})
	return b.closeErr
}
