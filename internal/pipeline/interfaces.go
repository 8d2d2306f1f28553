package pipeline

import (
	"image"

	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

// Detector runs layout inference on a preprocessed tensor. backend.Backend
// satisfies it.
type Detector interface {
	Infer(t *tensor.Tensor) ([]layout.BoundingBox, error)
	Close() error
}

// Preprocessor converts an image into a tensor the caller releases
type Preprocessor interface {
	Preprocess(img image.Image) (*tensor.Tensor, error)
}
