package dataset

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/workspace"
)

// Ratios is the train/val/test split.  The values are normalized by
// their sum, so 7/2/1 works as well as 0.7/0.2/0.1.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios returns the standard 70/20/10 split.
func DefaultRatios() Ratios {
	return Ratios{Train: 0.7, Val: 0.2, Test: 0.1}
}

// ExportStats reports the composition of an exported archive.
type ExportStats struct {
	Train     int
	Val       int
	Test      int
	Labeled   int
	Unlabeled int
}

// ExportZip writes the workspace as a standard YOLO training archive:
// train/val/test split directories with images/ and labels/ pairs plus
// a data.yaml.  Labeled and unlabeled images are split proportionally
// but shuffled independently so negatives spread across all splits.
// Unlabeled images get empty label files.  The shuffle is seeded for
// reproducible splits.
func ExportZip(ws *workspace.Workspace, zipPath string, r Ratios, seed int64) (ExportStats, error) {

	var stats ExportStats

	sum := r.Train + r.Val + r.Test

	if sum <= 0 {
		return stats, fmt.Errorf("split ratios must sum to a positive value")
	}

	r.Train /= sum
	r.Val /= sum
	r.Test /= sum

	labeled, unlabeled := partition(ws)

	if len(labeled)+len(unlabeled) == 0 {
		return stats, fmt.Errorf("no images to export")
	}

	stats.Labeled = len(labeled)
	stats.Unlabeled = len(unlabeled)

	rnd := rand.New(rand.NewSource(seed))
	rnd.Shuffle(len(labeled), func(i, j int) {
		labeled[i], labeled[j] = labeled[j], labeled[i]
	})
	rnd.Shuffle(len(unlabeled), func(i, j int) {
		unlabeled[i], unlabeled[j] = unlabeled[j], unlabeled[i]
	})

	nTrainL, nValL := splitCounts(len(labeled), r, true)
	nTrainU, nValU := splitCounts(len(unlabeled), r, false)

	splits := map[string][]string{
		"train": append(append([]string{}, labeled[:nTrainL]...), unlabeled[:nTrainU]...),
		"val":   append(append([]string{}, labeled[nTrainL:nTrainL+nValL]...), unlabeled[nTrainU:nTrainU+nValU]...),
		"test":  append(append([]string{}, labeled[nTrainL+nValL:]...), unlabeled[nTrainU+nValU:]...),
	}

	stats.Train = len(splits["train"])
	stats.Val = len(splits["val"])
	stats.Test = len(splits["test"])

	tempRoot, err := os.MkdirTemp(ws.Root, "export-*")

	if err != nil {
		return stats, fmt.Errorf("%w: creating temp dir: %v", labelkit.ErrIOFailure, err)
	}

	defer os.RemoveAll(tempRoot)

	for name, files := range splits {
		if err := writeSplit(ws, tempRoot, name, files); err != nil {
			return stats, err
		}
	}

	if err := writeDataYAML(tempRoot, ws.Classes, stats.Test > 0); err != nil {
		return stats, err
	}

	if err := zipDir(tempRoot, zipPath); err != nil {
		return stats, err
	}

	zap.L().Info("dataset exported",
		zap.String("archive", zipPath),
		zap.Int("train", stats.Train),
		zap.Int("val", stats.Val),
		zap.Int("test", stats.Test))

	return stats, nil
}

// partition separates images by whether a label file exists.
func partition(ws *workspace.Workspace) (labeled, unlabeled []string) {

	for _, img := range ws.Images {
		if _, err := os.Stat(ws.LabelPath(img)); err == nil {
			labeled = append(labeled, img)
		} else {
			unlabeled = append(unlabeled, img)
		}
	}

	return labeled, unlabeled
}

// splitCounts returns how many files go to train and val.  For labeled
// sets of three or more, train and val each get at least one so no
// split starves.
func splitCounts(total int, r Ratios, guarantee bool) (train, val int) {

	if total == 0 {
		return 0, 0
	}

	train = int(float64(total) * r.Train)
	val = int(float64(total) * r.Val)

	if guarantee && total >= 3 {
		if train == 0 {
			train = 1
		}

		if val == 0 {
			val = 1
		}
	}

	return train, val
}

// writeSplit copies one split's images and labels into the temp tree,
// creating empty label files for negatives.
func writeSplit(ws *workspace.Workspace, tempRoot, name string, files []string) error {

	if len(files) == 0 {
		return nil
	}

	imgDir := filepath.Join(tempRoot, name, "images")
	lblDir := filepath.Join(tempRoot, name, "labels")

	for _, dir := range []string{imgDir, lblDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, dir, err)
		}
	}

	for _, img := range files {

		if err := copyFile(img, filepath.Join(imgDir, filepath.Base(img))); err != nil {
			return err
		}

		src := ws.LabelPath(img)
		dst := filepath.Join(lblDir, workspace.Stem(img)+".txt")

		if _, err := os.Stat(src); err == nil {
			if err := copyFile(src, dst); err != nil {
				return err
			}
			continue
		}

		if err := os.WriteFile(dst, nil, 0o644); err != nil {
			return fmt.Errorf("%w: writing %s: %v", labelkit.ErrIOFailure, dst, err)
		}
	}

	return nil
}

// writeDataYAML emits the data.yaml the YOLO trainers expect, with
// relative split paths and an inline class name list.
func writeDataYAML(tempRoot string, classes labelkit.Classes, hasTest bool) error {

	lines := []string{
		"train: ../train/images",
		"val: ../val/images",
	}

	if hasTest {
		lines = append(lines, "test: ../test/images")
	}

	lines = append(lines, fmt.Sprintf("nc: %d", classes.Count()))

	quoted := make([]string, len(classes))

	for i, c := range classes {
		quoted[i] = "'" + c + "'"
	}

	lines = append(lines, fmt.Sprintf("names: [%s]", strings.Join(quoted, ", ")))

	path := filepath.Join(tempRoot, "data.yaml")

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", labelkit.ErrIOFailure, path, err)
	}

	return nil
}

// zipDir archives the directory contents with paths relative to root.
func zipDir(root, zipPath string) error {

	out, err := os.Create(zipPath)

	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, zipPath, err)
	}

	defer out.Close()

	zw := zip.NewWriter(out)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {

		if err != nil || d.IsDir() {
			return err
		}

		rel, err := filepath.Rel(root, path)

		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(rel))

		if err != nil {
			return err
		}

		f, err := os.Open(path)

		if err != nil {
			return err
		}

		defer f.Close()

		_, err = io.Copy(w, f)

		return err
	})

	if err != nil {
		zw.Close()
		return fmt.Errorf("%w: archiving %s: %v", labelkit.ErrIOFailure, zipPath, err)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("%w: finalizing %s: %v", labelkit.ErrIOFailure, zipPath, err)
	}

	return out.Close()
}

// copyFile copies src to dst, creating or truncating dst.
func copyFile(src, dst string) error {

	in, err := os.Open(src)

	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", labelkit.ErrIOFailure, src, err)
	}

	defer in.Close()

	out, err := os.Create(dst)

	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("%w: copying to %s: %v", labelkit.ErrIOFailure, dst, err)
	}

	return out.Close()
}
