// Package postprocess turns raw detector outputs into layout boxes.
package postprocess

import (
	"math"
	"strings"

	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

const (
	DefaultScoreThreshold = 0.5
	DefaultIoUThreshold   = 0.5
)

// Decoder converts DETR-style outputs (class logits [1,Q,C] and normalised
// cx,cy,w,h boxes [1,Q,4]) into pixel boxes.
type Decoder struct {
	ScoreThreshold float32
	IoUThreshold   float32
}

// NewDecoder returns a decoder; a non-positive threshold selects the default.
func NewDecoder(scoreThreshold float32) *Decoder {
	if scoreThreshold <= 0 {
		scoreThreshold = DefaultScoreThreshold
	}
	return &Decoder{
		ScoreThreshold: scoreThreshold,
		IoUThreshold:   DefaultIoUThreshold,
	}
}

// Decode maps outputs to boxes in a width x height pixel space. Outputs that
// do not look like a logits/boxes pair produce no boxes.
func (d *Decoder) Decode(outputs []tensor.Output, width, height int) []layout.BoundingBox {
	logits, boxes, ok := splitOutputs(outputs)
	if !ok {
		return nil
	}

	queries := len(boxes.Data) / 4
	classes := len(logits.Data) / queries
	fw, fh := float32(width), float32(height)

	var result []layout.BoundingBox
	for q := 0; q < queries; q++ {
		row := logits.Data[q*classes : (q+1)*classes]
		best, bestScore := -1, float32(0)
		for c, v := range row {
			s := sigmoid(v)
			if best < 0 || s > bestScore {
				best, bestScore = c, s
			}
		}
		if bestScore < d.ScoreThreshold {
			continue
		}

		b := boxes.Data[q*4 : q*4+4]
		x1 := clamp((b[0]-b[2]/2)*fw, 0, fw)
		y1 := clamp((b[1]-b[3]/2)*fh, 0, fh)
		x2 := clamp((b[0]+b[2]/2)*fw, 0, fw)
		y2 := clamp((b[1]+b[3]/2)*fh, 0, fh)
		if x2 <= x1 || y2 <= y1 {
			continue
		}

		result = append(result, layout.BoundingBox{
			X:      x1,
			Y:      y1,
			Width:  x2 - x1,
			Height: y2 - y1,
			Label:  Label(best),
			Score:  bestScore,
		})
	}

	return NMS(result, d.IoUThreshold)
}

// splitOutputs finds the logits and boxes tensors, first by name and then by
// shape: boxes end in 4, logits share the query count.
func splitOutputs(outputs []tensor.Output) (logits, boxes tensor.Output, ok bool) {
	var haveLogits, haveBoxes bool
	for _, o := range outputs {
		name := strings.ToLower(o.Name)
		switch {
		case strings.Contains(name, "logit") || strings.Contains(name, "score"):
			logits, haveLogits = o, true
		case strings.Contains(name, "box"):
			boxes, haveBoxes = o, true
		}
	}

	if !haveBoxes {
		for _, o := range outputs {
			if lastDim(o.Shape) == 4 {
				boxes, haveBoxes = o, true
				break
			}
		}
	}
	if haveBoxes && !haveLogits {
		for _, o := range outputs {
			if o.Name != boxes.Name && queryDim(o.Shape) == queryDim(boxes.Shape) {
				logits, haveLogits = o, true
				break
			}
		}
	}
	if !haveLogits || !haveBoxes {
		return logits, boxes, false
	}

	queries := len(boxes.Data) / 4
	if queries == 0 || len(boxes.Data)%4 != 0 || len(logits.Data)%queries != 0 || len(logits.Data) == 0 {
		return logits, boxes, false
	}
	return logits, boxes, true
}

func lastDim(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	return shape[len(shape)-1]
}

func queryDim(shape []int64) int64 {
	if len(shape) < 2 {
		return -1
	}
	return shape[len(shape)-2]
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
