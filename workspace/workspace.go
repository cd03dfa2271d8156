// Package workspace manages an annotation directory: the images/ and
// labels/ pair, class definitions, suppression thresholds and the sync
// between the in-memory store and the label files on disk.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/postprocess"
)

// DataFileName is the class definition file in the workspace root.
const DataFileName = "data.yaml"

// Workspace is the explicit context for one open annotation directory.
// It replaces any global state: everything scoped to the directory
// lives here, created by Open and flushed on Close.
type Workspace struct {
	// Root is the workspace directory
	Root string
	// ImagesDir and LabelsDir are the parallel images/ and labels/ pair
	ImagesDir string
	LabelsDir string
	// Images is the ordered list of image paths
	Images []string
	// Classes is the ordered class name list
	Classes labelkit.Classes
	// Thresholds is the suppression configuration
	Thresholds postprocess.Thresholds
}

// Open validates the workspace layout and loads the image list, class
// definitions and thresholds.  A missing images/ directory is a
// recoverable error, nothing on disk is modified.
func Open(root string) (*Workspace, error) {

	w := &Workspace{
		Root:      root,
		ImagesDir: filepath.Join(root, "images"),
		LabelsDir: filepath.Join(root, "labels"),
	}

	if _, err := os.Stat(w.ImagesDir); err != nil {
		return nil, fmt.Errorf("%w: images directory: %v", labelkit.ErrIOFailure, err)
	}

	images, err := ListImages(w.ImagesDir)

	if err != nil {
		return nil, fmt.Errorf("%w: %v", labelkit.ErrIOFailure, err)
	}

	w.Images = images

	classes, err := labelkit.LoadClassesYAML(filepath.Join(root, DataFileName))

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	w.Classes = classes

	th, err := LoadThresholds(filepath.Join(root, ConfigFileName))

	if err != nil {
		return nil, err
	}

	w.Thresholds = th

	zap.L().Info("workspace opened",
		zap.String("root", root),
		zap.Int("images", len(w.Images)),
		zap.Int("classes", w.Classes.Count()))

	return w, nil
}

// LabelPath returns the label file path for an image: the same stem
// under the parallel labels/ directory.
func (w *Workspace) LabelPath(imagePath string) string {
	return filepath.Join(w.LabelsDir, Stem(imagePath)+".txt")
}

// legacyLabelPath is the flat-layout fallback: a .txt next to the image
// itself.  Read-only, saves always go to LabelPath.
func legacyLabelPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return imagePath[:len(imagePath)-len(ext)] + ".txt"
}

// SaveThresholds persists the current threshold configuration to the
// workspace config file.
func (w *Workspace) SaveThresholds() error {
	return SaveThresholds(filepath.Join(w.Root, ConfigFileName), w.Thresholds)
}

// SaveClasses persists the class list to the workspace data.yaml.
func (w *Workspace) SaveClasses() error {
	return labelkit.SaveClassesYAML(filepath.Join(w.Root, DataFileName), w.Classes)
}
