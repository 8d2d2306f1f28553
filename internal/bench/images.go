package bench

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// CollectImages lists the images directly inside dir, sorted by name
// ignoring case. A missing directory yields an empty list.
func CollectImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i]) < strings.ToLower(files[j])
	})
	return files, nil
}

// ResizeToTemp writes path resized to width x height as a PNG in tmpDir and
// returns the new file's path.
func ResizeToTemp(path string, width, height int, tmpDir string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	return saveTemp(resized, tmpDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// BlankPage writes a white width x height PNG used when no images are found
func BlankPage(width, height int, tmpDir string) (string, error) {
	img := imaging.New(width, height, color.White)
	return saveTemp(img, tmpDir, "blank")
}

func saveTemp(img image.Image, tmpDir, stem string) (string, error) {
	f, err := os.CreateTemp(tmpDir, stem+"-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temp image: %w", err)
	}
	path := f.Name()
	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
