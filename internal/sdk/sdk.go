// Package sdk is the entry point for document layout analysis: it decodes an
// image, runs it through a per-runtime pipeline and optionally renders the
// detected boxes.
package sdk

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/dudu/layoutkit/internal/backend"
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/monitoring"
	"github.com/dudu/layoutkit/internal/pipeline"
	"github.com/dudu/layoutkit/internal/preprocess"
	"github.com/dudu/layoutkit/internal/render"
)

// Option configures an SDK
type Option func(*SDK)

// WithFactory replaces the default backend factory
func WithFactory(f backend.Factory) Option {
	return func(s *SDK) {
		if f != nil {
			s.factory = f
		}
	}
}

// WithRenderer replaces the default lime box renderer
func WithRenderer(r render.Renderer) Option {
	return func(s *SDK) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithPreprocessor replaces the default planar RGB preprocessor. It is shared
// by every runtime's pipeline and must be safe for concurrent use.
func WithPreprocessor(p preprocess.Preprocessor) Option {
	return func(s *SDK) {
		if p != nil {
			s.preprocessor = p
		}
	}
}

// entry is one runtime's pipeline. ready is closed once construction has
// finished; pipeline and err are immutable after that.
type entry struct {
	ready    chan struct{}
	pipeline *pipeline.Pipeline
	err      error
}

// SDK lazily builds one pipeline per runtime and reuses it for later calls.
// It is safe for concurrent use.
type SDK struct {
	opts         *config.Options
	factory      backend.Factory
	renderer     render.Renderer
	preprocessor preprocess.Preprocessor

	mu      sync.Mutex
	entries map[layout.Runtime]*entry
	closed  bool

	closeOnce sync.Once
	closeErr  error
}

// New creates an SDK. Without WithFactory the default factory is built from
// opts, which validates the model paths when opts asks for it.
func New(opts *config.Options, options ...Option) (*SDK, error) {
	if opts == nil {
		return nil, errors.New("sdk: nil options")
	}

	s := &SDK{
		opts:    opts,
		entries: make(map[layout.Runtime]*entry),
	}
	for _, o := range options {
		o(s)
	}

	if s.factory == nil {
		f, err := backend.NewFactory(opts)
		if err != nil {
			return nil, err
		}
		s.factory = f
	}
	if s.renderer == nil {
		s.renderer = render.NewBoxes()
	}
	if s.preprocessor == nil {
		s.preprocessor = preprocess.NewPlanar()
	}
	return s, nil
}

// Process runs layout analysis on the image at path with the given runtime.
// When overlay is set the result carries an annotated copy of the image.
func (s *SDK) Process(path string, overlay bool, runtime layout.Runtime) (*layout.Result, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}

	p, err := s.pipeline(runtime)
	if err != nil {
		return nil, err
	}

	out, err := p.Execute(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runtime, err)
	}

	result := &layout.Result{
		Boxes:    out.Boxes,
		Language: s.opts.DefaultLanguage,
		Metrics:  out.Metrics,
	}

	if overlay {
		start := time.Now()
		rendered, err := s.renderer.Render(img, out.Boxes)
		result.Metrics.Overlay = time.Since(start)
		if err != nil {
			return nil, fmt.Errorf("render overlay: %w", err)
		}
		result.Overlay = rendered
	}
	return result, nil
}

func loadImage(path string) (image.Image, error) {
	if strings.TrimSpace(path) == "" {
		return nil, layout.ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("%w: %s", layout.ErrImageNotFound, path)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", layout.ErrDecodeFailure, path, err)
	}
	return img, nil
}

// pipeline returns the runtime's pipeline, building it exactly once. Callers
// arriving during construction wait for it; a failed construction is not
// cached so the next call retries.
func (s *SDK) pipeline(runtime layout.Runtime) (*pipeline.Pipeline, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, layout.ErrClosed
	}
	if e, ok := s.entries[runtime]; ok {
		s.mu.Unlock()
		<-e.ready
		return e.pipeline, e.err
	}
	e := &entry{ready: make(chan struct{})}
	s.entries[runtime] = e
	s.mu.Unlock()

	done := false
	defer func() {
		if !done {
			// build panicked; release the waiters before the panic unwinds
			e.pipeline, e.err = nil, fmt.Errorf("%s: pipeline construction aborted", runtime)
			s.finish(runtime, e)
		}
	}()
	e.pipeline, e.err = s.build(runtime)
	done = true
	closed := s.finish(runtime, e)

	if e.err != nil {
		return nil, e.err
	}
	if closed {
		// Close waited on ready and owns the pipeline now
		return nil, layout.ErrClosed
	}
	return e.pipeline, nil
}

// finish publishes a constructed entry, dropping it from the cache when it
// failed, and reports whether the SDK was closed meanwhile.
func (s *SDK) finish(runtime layout.Runtime, e *entry) bool {
	s.mu.Lock()
	if e.err != nil && s.entries[runtime] == e {
		delete(s.entries, runtime)
	}
	closed := s.closed
	s.mu.Unlock()
	close(e.ready)
	return closed
}

func (s *SDK) build(runtime layout.Runtime) (*pipeline.Pipeline, error) {
	b, err := s.factory.Create(runtime)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(b, s.preprocessor)
	if err != nil {
		b.Close()
		return nil, err
	}
	monitoring.Logf("sdk: %s pipeline ready", runtime)
	return p, nil
}

// Runtimes returns the runtimes with a live pipeline, sorted
func (s *SDK) Runtimes() []layout.Runtime {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []layout.Runtime
	for rt, e := range s.entries {
		select {
		case <-e.ready:
			if e.err == nil {
				out = append(out, rt)
			}
		default:
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close releases every pipeline once, waiting for any still under
// construction. Later calls return the first result and Process fails with
// layout.ErrClosed.
func (s *SDK) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		entries := s.entries
		s.entries = make(map[layout.Runtime]*entry)
		s.mu.Unlock()

		var errs []error
		for rt, e := range entries {
			<-e.ready
			if e.err != nil || e.pipeline == nil {
				continue
			}
			if err := e.pipeline.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", rt, err))
			}
			monitoring.Logf("sdk: %s pipeline closed", rt)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
