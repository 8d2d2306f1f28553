package layout

import (
	"image"
	"time"
)

// BoundingBox is one detected layout region in image pixel coordinates
type BoundingBox struct {
	X, Y          float32 // top-left
	Width, Height float32
	Label         string
	Score         float32
}

// Right returns the x coordinate of the right edge
func (b BoundingBox) Right() float32 {
	return b.X + b.Width
}

// Bottom returns the y coordinate of the bottom edge
func (b BoundingBox) Bottom() float32 {
	return b.Y + b.Height
}

// Area returns box area
func (b BoundingBox) Area() float32 {
	return b.Width * b.Height
}

// Scale returns the box with x/width multiplied by sx and y/height by sy
func (b BoundingBox) Scale(sx, sy float32) BoundingBox {
	b.X *= sx
	b.Width *= sx
	b.Y *= sy
	b.Height *= sy
	return b
}

// Rect returns the integer rectangle covering the box
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(int(b.X), int(b.Y), int(b.Right()+0.5), int(b.Bottom()+0.5))
}

// Metrics holds per-stage wall clock durations of one Process call
type Metrics struct {
	Preprocess time.Duration
	Inference  time.Duration
	Overlay    time.Duration
}

// Total returns the sum of all stage durations
func (m Metrics) Total() time.Duration {
	return m.Preprocess + m.Inference + m.Overlay
}

// Result is what Process returns
type Result struct {
	Boxes    []BoundingBox
	Overlay  image.Image // nil unless an overlay was requested
	Language Language
	Metrics  Metrics
}
