package bench

import (
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "C.tiff", "notes.txt", "d.webp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o755))

	files, err := CollectImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "C.tiff"),
	}, files)

	files, err = CollectImages(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestResizeToTemp(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "page.png")
	require.NoError(t, imaging.Save(image.NewNRGBA(image.Rect(0, 0, 40, 20)), src))

	out, err := ResizeToTemp(src, 16, 12, dir)
	require.NoError(t, err)
	assert.Equal(t, ".png", filepath.Ext(out))

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 12), img.Bounds())

	_, err = ResizeToTemp(filepath.Join(dir, "missing.png"), 16, 12, dir)
	assert.Error(t, err)
}

func TestBlankPage(t *testing.T) {
	path, err := BlankPage(8, 6, t.TempDir())
	require.NoError(t, err)
	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
}
