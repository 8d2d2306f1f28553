package postprocess

import (
	"sort"

	"github.com/dudu/layoutkit/internal/layout"
)

// NMS performs class-aware non-maximum suppression; boxes only suppress
// boxes carrying the same label.
func NMS(boxes []layout.BoundingBox, iouThreshold float32) []layout.BoundingBox {
	if len(boxes) == 0 {
		return boxes
	}

	// Sort by score (descending)
	sort.SliceStable(boxes, func(i, j int) bool {
		return boxes[i].Score > boxes[j].Score
	})

	keep := make([]bool, len(boxes))
	for i := range keep {
		keep[i] = true
	}

	for i := 0; i < len(boxes); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(boxes); j++ {
			if !keep[j] || boxes[i].Label != boxes[j].Label {
				continue
			}
			if IoU(boxes[i], boxes[j]) > iouThreshold {
				keep[j] = false
			}
		}
	}

	result := make([]layout.BoundingBox, 0, len(boxes))
	for i, b := range boxes {
		if keep[i] {
			result = append(result, b)
		}
	}
	return result
}

// IoU calculates intersection over union of two boxes
func IoU(a, b layout.BoundingBox) float32 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.Right(), b.Right())
	y2 := min(a.Bottom(), b.Bottom())

	if x1 >= x2 || y1 >= y2 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}
