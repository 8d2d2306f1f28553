// Package ui shows layout results in a native preview window.
package ui

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/dudu/layoutkit/internal/layout"
)

// Window manages the preview display
type Window struct {
	window *gocv.Window
	name   string
}

// NewWindow creates a new preview window
func NewWindow(name string) *Window {
	window := gocv.NewWindow(name)
	// Force window to appear on macOS
	window.MoveWindow(100, 100)
	return &Window{
		window: window,
		name:   name,
	}
}

// Show displays img with each box's label and score written at its corner.
// The boxes themselves are expected to be drawn already.
func (w *Window) Show(img image.Image, boxes []layout.BoundingBox) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	for _, b := range boxes {
		text := fmt.Sprintf("%s %.2f", b.Label, b.Score)
		origin := image.Pt(int(b.X)+3, int(b.Y)+14)
		gocv.PutText(&mat, text, origin,
			gocv.FontHersheyPlain, 1, color.RGBA{R: 0, G: 255, B: 0, A: 255}, 1)
	}

	// Fit tall pages onto the screen
	bounds := img.Bounds()
	if bounds.Dy() > 1000 {
		scale := 1000.0 / float64(bounds.Dy())
		w.window.ResizeWindow(int(float64(bounds.Dx())*scale), 1000)
	}

	w.window.IMShow(mat)
	return nil
}

// WaitKey waits for key press, returns key code or -1
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// Close closes the window
func (w *Window) Close() error {
	if w.window != nil {
		return w.window.Close()
	}
	return nil
}
