package sdk

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudu/layoutkit/internal/backend"
	"github.com/dudu/layoutkit/internal/config"
	"github.com/dudu/layoutkit/internal/layout"
	"github.com/dudu/layoutkit/internal/tensor"
)

type fakeBackend struct {
	runtime layout.Runtime
	infers  atomic.Int32
	closes  atomic.Int32
}

func (f *fakeBackend) Infer(t *tensor.Tensor) ([]layout.BoundingBox, error) {
	f.infers.Add(1)
	return []layout.BoundingBox{{X: 1, Y: 1, Width: 4, Height: 4, Label: "Text", Score: 0.9}}, nil
}

func (f *fakeBackend) Close() error {
	f.closes.Add(1)
	return nil
}

// countingFactory records every backend it creates
type countingFactory struct {
	mu       sync.Mutex
	created  map[layout.Runtime][]*fakeBackend
	delay    time.Duration
	failures int
}

func newCountingFactory() *countingFactory {
	return &countingFactory{created: make(map[layout.Runtime][]*fakeBackend)}
}

func (f *countingFactory) Create(rt layout.Runtime) (backend.Backend, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, &layout.BackendError{Runtime: rt, Err: errors.New("native init failed")}
	}
	b := &fakeBackend{runtime: rt}
	f.created[rt] = append(f.created[rt], b)
	return b, nil
}

func (f *countingFactory) count(rt layout.Runtime) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created[rt])
}

func testOptions(t *testing.T) *config.Options {
	t.Helper()
	opts, err := config.NewOptions("m.onnx", config.OpenVINOOptions{ModelXMLPath: "m.xml"},
		config.WithLanguage(layout.French))
	require.NoError(t, err)
	return opts
}

func writePage(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, imaging.Save(img, path))
	return path
}

func newTestSDK(t *testing.T) (*SDK, *countingFactory) {
	t.Helper()
	f := newCountingFactory()
	s, err := New(testOptions(t), WithFactory(f))
	require.NoError(t, err)
	return s, f
}

func TestProcessValidatesPath(t *testing.T) {
	s, f := newTestSDK(t)
	defer s.Close()

	_, err := s.Process("  ", false, layout.RuntimeONNX)
	assert.ErrorIs(t, err, layout.ErrEmptyPath)

	_, err = s.Process(filepath.Join(t.TempDir(), "missing.png"), false, layout.RuntimeONNX)
	assert.ErrorIs(t, err, layout.ErrImageNotFound)

	_, err = s.Process(t.TempDir(), false, layout.RuntimeONNX)
	assert.ErrorIs(t, err, layout.ErrImageNotFound)

	garbage := filepath.Join(t.TempDir(), "page.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = s.Process(garbage, false, layout.RuntimeONNX)
	assert.ErrorIs(t, err, layout.ErrDecodeFailure)

	assert.Zero(t, f.count(layout.RuntimeONNX), "no backend before a decodable image")
}

func TestProcessOverlay(t *testing.T) {
	s, _ := newTestSDK(t)
	defer s.Close()
	page := writePage(t)

	res, err := s.Process(page, false, layout.RuntimeONNX)
	require.NoError(t, err)
	assert.Nil(t, res.Overlay)
	assert.Zero(t, res.Metrics.Overlay)
	assert.Len(t, res.Boxes, 1)
	assert.Equal(t, layout.French, res.Language)

	res, err = s.Process(page, true, layout.RuntimeONNX)
	require.NoError(t, err)
	require.NotNil(t, res.Overlay)
	assert.Equal(t, image.Rect(0, 0, 16, 16), res.Overlay.Bounds())
	assert.Equal(t, res.Metrics.Preprocess+res.Metrics.Inference+res.Metrics.Overlay, res.Metrics.Total())
}

func TestPipelineReusedPerRuntime(t *testing.T) {
	s, f := newTestSDK(t)
	page := writePage(t)

	for i := 0; i < 3; i++ {
		_, err := s.Process(page, false, layout.RuntimeONNX)
		require.NoError(t, err)
	}
	_, err := s.Process(page, false, layout.RuntimeOpenVINO)
	require.NoError(t, err)

	assert.Equal(t, 1, f.count(layout.RuntimeONNX))
	assert.Equal(t, 1, f.count(layout.RuntimeOpenVINO))
	assert.Equal(t, int32(3), f.created[layout.RuntimeONNX][0].infers.Load())
	assert.Equal(t, []layout.Runtime{layout.RuntimeONNX, layout.RuntimeOpenVINO}, s.Runtimes())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), f.created[layout.RuntimeONNX][0].closes.Load())
	assert.Equal(t, int32(1), f.created[layout.RuntimeOpenVINO][0].closes.Load())
}

func TestConcurrentFirstUseBuildsOnce(t *testing.T) {
	s, f := newTestSDK(t)
	defer s.Close()
	f.delay = 20 * time.Millisecond
	page := writePage(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Process(page, false, layout.RuntimeORT)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, f.count(layout.RuntimeORT))
}

func TestFailedBuildNotCached(t *testing.T) {
	s, f := newTestSDK(t)
	defer s.Close()
	f.failures = 1
	page := writePage(t)

	_, err := s.Process(page, false, layout.RuntimeOpenVINO)
	var be *layout.BackendError
	require.ErrorAs(t, err, &be)
	assert.Empty(t, s.Runtimes())

	_, err = s.Process(page, false, layout.RuntimeOpenVINO)
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(layout.RuntimeOpenVINO))
}

func TestUnsupportedRuntimeFromDefaultFactory(t *testing.T) {
	s, err := New(testOptions(t))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Process(writePage(t), false, layout.Runtime("tensorrt"))
	assert.ErrorIs(t, err, layout.ErrUnsupportedRuntime)
}

func TestNewValidatesModels(t *testing.T) {
	opts := testOptions(t)
	opts.ValidateModelPaths = true

	_, err := New(opts)
	var mnf *layout.ModelNotFoundError
	assert.ErrorAs(t, err, &mnf)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestProcessAfterClose(t *testing.T) {
	s, f := newTestSDK(t)
	page := writePage(t)

	_, err := s.Process(page, false, layout.RuntimeONNX)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Process(page, false, layout.RuntimeONNX)
	assert.ErrorIs(t, err, layout.ErrClosed)
	assert.Equal(t, 1, f.count(layout.RuntimeONNX))
}

func TestCloseWaitsForPendingBuild(t *testing.T) {
	s, f := newTestSDK(t)
	f.delay = 50 * time.Millisecond
	page := writePage(t)

	done := make(chan error, 1)
	go func() {
		_, err := s.Process(page, false, layout.RuntimeONNX)
		done <- err
	}()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return len(s.entries) == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, <-done, layout.ErrClosed)
	require.Equal(t, 1, f.count(layout.RuntimeONNX))
	assert.Equal(t, int32(1), f.created[layout.RuntimeONNX][0].closes.Load())
}

func TestPanickingBuildReleasesWaiters(t *testing.T) {
	var calls atomic.Int32
	f := backend.FactoryFunc(func(rt layout.Runtime) (backend.Backend, error) {
		if calls.Add(1) == 1 {
			panic("native constructor blew up")
		}
		return &fakeBackend{runtime: rt}, nil
	})
	s, err := New(testOptions(t), WithFactory(f))
	require.NoError(t, err)
	page := writePage(t)

	assert.Panics(t, func() { s.Process(page, false, layout.RuntimeORT) })
	assert.Empty(t, s.Runtimes())

	_, err = s.Process(page, false, layout.RuntimeORT)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	select {
	case err := <-closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Close blocked on an aborted build")
	}
}
