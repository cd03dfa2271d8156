package dataset

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/workspace"
)

// ImportStats reports what an import merged into the workspace.
type ImportStats struct {
	Images  int
	Labels  int
	Classes labelkit.Classes
}

// ImportZip merges a YOLO archive into the workspace at root.  Both
// split (train/val/test) and flat (images/labels at the top) layouts
// are handled.  Existing stems are never overwritten, and the class
// list becomes the union of the workspace's and the archive's.
func ImportZip(zipPath, root string) (ImportStats, error) {

	var stats ImportStats

	imagesDst := filepath.Join(root, "images")
	labelsDst := filepath.Join(root, "labels")

	for _, dir := range []string{imagesDst, labelsDst} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stats, fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, dir, err)
		}
	}

	tempRoot, err := os.MkdirTemp(root, "import-*")

	if err != nil {
		return stats, fmt.Errorf("%w: creating temp dir: %v", labelkit.ErrIOFailure, err)
	}

	defer os.RemoveAll(tempRoot)

	if err := extract(zipPath, tempRoot); err != nil {
		return stats, err
	}

	classes, err := mergeClasses(tempRoot, root)

	if err != nil {
		return stats, err
	}

	stats.Classes = classes

	roots, err := splitRoots(tempRoot)

	if err != nil {
		return stats, err
	}

	for _, sr := range roots {

		n, err := mergeDir(filepath.Join(sr, "images"), imagesDst, workspace.IsImage)

		if err != nil {
			return stats, err
		}

		stats.Images += n

		n, err = mergeDir(filepath.Join(sr, "labels"), labelsDst, func(name string) bool {
			return strings.EqualFold(filepath.Ext(name), ".txt")
		})

		if err != nil {
			return stats, err
		}

		stats.Labels += n
	}

	zap.L().Info("dataset imported",
		zap.String("archive", zipPath),
		zap.Int("images", stats.Images),
		zap.Int("labels", stats.Labels))

	return stats, nil
}

// extract unpacks the archive, rejecting entries that would escape the
// destination directory.
func extract(zipPath, dst string) error {

	zr, err := zip.OpenReader(zipPath)

	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", labelkit.ErrIOFailure, zipPath, err)
	}

	defer zr.Close()

	for _, entry := range zr.File {

		target := filepath.Join(dst, filepath.FromSlash(entry.Name))

		if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: archive entry escapes destination: %s",
				labelkit.ErrIOFailure, entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, target, err)
		}

		if err := extractFile(entry, target); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(entry *zip.File, target string) error {

	rc, err := entry.Open()

	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", labelkit.ErrIOFailure, entry.Name, err)
	}

	defer rc.Close()

	out, err := os.Create(target)

	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, target, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%w: extracting %s: %v", labelkit.ErrIOFailure, entry.Name, err)
	}

	return out.Close()
}

// mergeClasses unions the archive's class list into the workspace
// data.yaml and returns the result.
func mergeClasses(tempRoot, root string) (labelkit.Classes, error) {

	found := findDataYAML(tempRoot)

	existing, err := labelkit.LoadClassesYAML(filepath.Join(root, workspace.DataFileName))

	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if found == "" {
		return existing, nil
	}

	imported, err := labelkit.LoadClassesYAML(found)

	if err != nil {
		return nil, err
	}

	merged := existing

	for _, name := range imported {
		if !contains(merged, name) {
			merged = append(merged, name)
		}
	}

	if err := labelkit.SaveClassesYAML(filepath.Join(root, workspace.DataFileName), merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// findDataYAML locates the first data.yaml in the extracted tree.
func findDataYAML(tempRoot string) string {

	var found string

	filepath.WalkDir(tempRoot, func(path string, d fs.DirEntry, err error) error {

		if err != nil {
			return nil
		}

		if !d.IsDir() && d.Name() == workspace.DataFileName && found == "" {
			found = path
			return fs.SkipAll
		}

		return nil
	})

	return found
}

// splitRoots returns the directories holding images/labels pairs: the
// train/val/test subtrees when present, otherwise the archive root for
// flat layouts.
func splitRoots(tempRoot string) ([]string, error) {

	var roots []string

	for _, split := range []string{"train", "val", "test"} {

		var found string

		filepath.WalkDir(tempRoot, func(path string, d fs.DirEntry, err error) error {

			if err != nil {
				return nil
			}

			if d.IsDir() && d.Name() == split && found == "" {
				found = path
				return fs.SkipAll
			}

			return nil
		})

		if found != "" {
			roots = append(roots, found)
		}
	}

	if len(roots) == 0 {
		roots = append(roots, tempRoot)
	}

	return roots, nil
}

// mergeDir copies matching files into dst, skipping stems that already
// exist there.
func mergeDir(src, dst string, match func(string) bool) (int, error) {

	entries, err := os.ReadDir(src)

	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}

	if err != nil {
		return 0, fmt.Errorf("%w: reading %s: %v", labelkit.ErrIOFailure, src, err)
	}

	count := 0

	for _, e := range entries {

		if e.IsDir() || !match(e.Name()) {
			continue
		}

		target := filepath.Join(dst, e.Name())

		if _, err := os.Stat(target); err == nil {
			continue
		}

		if err := copyFile(filepath.Join(src, e.Name()), target); err != nil {
			return count, err
		}

		count++
	}

	return count, nil
}

func contains(list []string, name string) bool {

	for _, n := range list {
		if n == name {
			return true
		}
	}

	return false
}
