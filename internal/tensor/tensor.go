// Package tensor provides the fixed-shape, channel-planar float buffer that
// carries one preprocessed image from the preprocessor to a backend.
package tensor

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrInvalidDimension = errors.New("tensor dimension must be positive")
	ErrOverflow         = errors.New("tensor size overflows addressable buffer")
)

// maxLen bounds the element count of a single buffer.
const maxLen = math.MaxInt32

// Buffers are recycled between calls; pooled slices may be larger than
// requested and are re-sliced and zeroed on reuse.
var bufferPool = sync.Pool{
	New: func() interface{} {
		return new([]float32)
	},
}

// Tensor is a channel-planar float32 image buffer: all width*height values of
// channel 0, then channel 1, and so on.
type Tensor struct {
	width, height, channels int
	data                    []float32
	pooled                  *[]float32

	mu       sync.Mutex
	released bool
}

// Allocate returns a zeroed tensor of width*height*channels elements.
func Allocate(width, height, channels int) (*Tensor, error) {
	if width <= 0 || height <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimension, width, height, channels)
	}
	if width > maxLen/height || width*height > maxLen/channels {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrOverflow, width, height, channels)
	}
	n := width * height * channels

	p := bufferPool.Get().(*[]float32)
	if cap(*p) < n {
		*p = make([]float32, n)
	} else {
		*p = (*p)[:n]
		clear(*p)
	}

	return &Tensor{
		width:    width,
		height:   height,
		channels: channels,
		data:     *p,
		pooled:   p,
	}, nil
}

// Width returns the tensor width in pixels
func (t *Tensor) Width() int { return t.width }

// Height returns the tensor height in pixels
func (t *Tensor) Height() int { return t.height }

// Channels returns the number of planes
func (t *Tensor) Channels() int { return t.channels }

// Len returns width*height*channels
func (t *Tensor) Len() int { return t.width * t.height * t.channels }

// Data exposes the flat buffer without copying. It returns nil after Release.
func (t *Tensor) Data() []float32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return nil
	}
	return t.data
}

// Plane returns the no-copy view of channel c.
func (t *Tensor) Plane(c int) []float32 {
	data := t.Data()
	if data == nil || c < 0 || c >= t.channels {
		return nil
	}
	size := t.width * t.height
	return data[c*size : (c+1)*size : (c+1)*size]
}

// Shape returns the NCHW shape [1, channels, height, width] used by the engines.
func (t *Tensor) Shape() []int64 {
	return []int64{1, int64(t.channels), int64(t.height), int64(t.width)}
}

// Release hands the buffer back for reuse. Calls after the first do nothing.
func (t *Tensor) Release() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true
	t.data = nil
	if t.pooled != nil {
		bufferPool.Put(t.pooled)
		t.pooled = nil
	}
}

// Output is one named raw engine output, copied out of native memory.
type Output struct {
	Name  string
	Shape []int64
	Data  []float32
}
