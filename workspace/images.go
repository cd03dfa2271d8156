package workspace

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	// register the image formats the annotator accepts
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// imageExts are the file extensions treated as annotatable images.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// IsImage reports whether the file name has a recognised image
// extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// ListImages returns the image files in dir sorted by name.
func ListImages(dir string) ([]string, error) {

	entries, err := os.ReadDir(dir)

	if err != nil {
		return nil, fmt.Errorf("error reading image directory: %w", err)
	}

	var images []string

	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		images = append(images, filepath.Join(dir, e.Name()))
	}

	sort.Strings(images)

	return images, nil
}

// Decode reads and decodes an image file.
func Decode(path string) (image.Image, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("error opening image: %w", err)
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, fmt.Errorf("error decoding image %s: %w", filepath.Base(path), err)
	}

	return img, nil
}

// Dimensions probes an image file's width and height without decoding
// the pixel data.
func Dimensions(path string) (int, int, error) {

	f, err := os.Open(path)

	if err != nil {
		return 0, 0, fmt.Errorf("error opening image: %w", err)
	}

	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)

	if err != nil {
		return 0, 0, fmt.Errorf("error probing image %s: %w", filepath.Base(path), err)
	}

	return cfg.Width, cfg.Height, nil
}

// Stem returns the file name without directory or extension, the part
// shared between an image and its label file.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
