// Package render draws detected layout boxes over page images.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/dudu/layoutkit/internal/layout"
)

// Renderer produces an annotated copy of an image
type Renderer interface {
	Render(img image.Image, boxes []layout.BoundingBox) (image.Image, error)
}

var (
	Lime               = color.NRGBA{R: 0, G: 255, B: 0, A: 255}
	DefaultStrokeWidth = 2
)

// Boxes outlines every box with a solid stroke
type Boxes struct {
	Color       color.Color
	StrokeWidth int
}

// NewBoxes returns the default lime, 2px renderer
func NewBoxes() *Boxes {
	return &Boxes{Color: Lime, StrokeWidth: DefaultStrokeWidth}
}

func (r *Boxes) Render(img image.Image, boxes []layout.BoundingBox) (image.Image, error) {
	if img == nil {
		return nil, layout.ErrNilImage
	}

	dst := imaging.Clone(img)
	src := image.NewUniform(r.Color)
	stroke := max(r.StrokeWidth, 1)

	// boxes are relative to the image origin, as is the clone
	for _, b := range boxes {
		rect := b.Rect().Intersect(dst.Bounds())
		if rect.Empty() {
			continue
		}
		strokeRect(dst, rect, src, stroke)
	}
	return dst, nil
}

func strokeRect(dst draw.Image, r image.Rectangle, src image.Image, width int) {
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y),
		image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}
