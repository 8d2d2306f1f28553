// Package preprocess converts decoded images into model input tensors.
package preprocess

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

// Preprocessor turns an image into a tensor owned by the caller, who must
// Release it.
type Preprocessor interface {
	Preprocess(img image.Image) (*tensor.Tensor, error)
}

// Planar produces 3-channel RGB tensors scaled to [0, 1], one plane per
// channel.
type Planar struct {
	width, height int
	workers       int
}

// PlanarOption configures a Planar preprocessor
type PlanarOption func(*Planar)

// WithTargetSize resizes images to width x height before conversion. Zero
// keeps the source size.
func WithTargetSize(width, height int) PlanarOption {
	return func(p *Planar) {
		if width > 0 && height > 0 {
			p.width, p.height = width, height
		}
	}
}

// WithWorkers caps the number of row workers
func WithWorkers(n int) PlanarOption {
	return func(p *Planar) {
		if n > 0 {
			p.workers = n
		}
	}
}

func NewPlanar(opts ...PlanarOption) *Planar {
	p := &Planar{workers: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(p)
	}
	return p
}

// TargetSize returns the configured resize target, zero when unset
func (p *Planar) TargetSize() (int, int) {
	return p.width, p.height
}

func (p *Planar) Preprocess(img image.Image) (*tensor.Tensor, error) {
	if img == nil {
		return nil, layout.ErrNilImage
	}

	if p.width > 0 && p.height > 0 {
		b := img.Bounds()
		if b.Dx() != p.width || b.Dy() != p.height {
			img = imaging.Resize(img, p.width, p.height, imaging.Linear)
		}
	}

	var pix []uint8
	var stride int
	bounds := img.Bounds()
	switch src := img.(type) {
	case *image.NRGBA:
		pix, stride = src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y):], src.Stride
	default:
		// imaging un-premultiplies RGBA sources into straight NRGBA
		dst := imaging.Clone(img)
		pix, stride = dst.Pix, dst.Stride
	}

	w, h := bounds.Dx(), bounds.Dy()
	t, err := tensor.Allocate(w, h, 3)
	if err != nil {
		return nil, fmt.Errorf("allocate tensor: %w", err)
	}

	r, g, b := t.Plane(0), t.Plane(1), t.Plane(2)
	p.rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := pix[y*stride : y*stride+w*4]
			base := y * w
			for x := 0; x < w; x++ {
				i := x * 4
				r[base+x] = float32(row[i]) / 255.0
				g[base+x] = float32(row[i+1]) / 255.0
				b[base+x] = float32(row[i+2]) / 255.0
			}
		}
	})
	return t, nil
}

// rows splits [0, height) into contiguous bands processed in parallel
func (p *Planar) rows(height int, fn func(y0, y1 int)) {
	workers := p.workers
	if workers > height {
		workers = height
	}
	if workers <= 1 {
		fn(0, height)
		return
	}

	band := (height + workers - 1) / workers
	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += band {
		y1 := min(y0+band, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
