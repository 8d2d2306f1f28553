// Package pipeline binds one detector to one preprocessor and times each
// stage of a layout run.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/dudu/layoutkit/internal/layout"
)

// Output holds the boxes of one run in source image pixels and its timings
type Output struct {
	Boxes   []layout.BoundingBox
	Metrics layout.Metrics
}

// Pipeline owns its detector and closes it on Close
type Pipeline struct {
	detector     Detector
	preprocessor Preprocessor

	closeOnce sync.Once
	closeErr  error
}

// New creates a pipeline over a detector and preprocessor
func New(detector Detector, preprocessor Preprocessor) (*Pipeline, error) {
	if detector == nil {
		return nil, errors.New("pipeline: nil detector")
	}
	if preprocessor == nil {
		return nil, errors.New("pipeline: nil preprocessor")
	}
	return &Pipeline{
		detector:     detector,
		preprocessor: preprocessor,
	}, nil
}

// Execute preprocesses img, runs the detector and maps the boxes back to the
// image size. Overlay time is left at zero for the caller to fill in.
func (p *Pipeline) Execute(img image.Image) (*Output, error) {
	if img == nil {
		return nil, layout.ErrNilImage
	}
	var metrics layout.Metrics

	preStart := time.Now()
	t, err := p.preprocessor.Preprocess(img)
	metrics.Preprocess = time.Since(preStart)
	if err != nil {
		return nil, fmt.Errorf("preprocess failed: %w", err)
	}
	defer t.Release()

	inferStart := time.Now()
	boxes, err := p.detector.Infer(t)
	metrics.Inference = time.Since(inferStart)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	bounds := img.Bounds()
	if t.Width() != bounds.Dx() || t.Height() != bounds.Dy() {
		sx := float32(bounds.Dx()) / float32(t.Width())
		sy := float32(bounds.Dy()) / float32(t.Height())
		for i := range boxes {
			boxes[i] = boxes[i].Scale(sx, sy)
		}
	}

	return &Output{Boxes: boxes, Metrics: metrics}, nil
}

// Close releases the detector. Calls after the first return its result.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		if err := p.detector.Close(); err != nil {
			p.closeErr = fmt.Errorf("cleanup errors: %w", err)
		}
	})
	return p.closeErr
}
