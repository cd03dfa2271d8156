package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/workspace"
)

// Strategy selects which image is kept from each segment during
// reduction.
type Strategy int

const (
	// Stratified keeps a random image per segment
	Stratified Strategy = iota
	// Uniform keeps the middle image of each segment
	Uniform
)

// Action decides what happens to the images not kept.
type Action int

const (
	// Move relocates skipped images and labels to skipped_images/
	Move Action = iota
	// Delete removes them permanently
	Delete
)

// SkippedDirName is where moved images land, mirroring the workspace
// images/labels pair.
const SkippedDirName = "skipped_images"

// ReduceResult reports what a reduction pass did.
type ReduceResult struct {
	Kept    int
	Removed int
}

// Reduce thins the workspace down to target images, keeping one image
// per segment of the name-sorted sequence so the timeline stays evenly
// covered.  The workspace image list is stale afterwards, reopen it.
func Reduce(ws *workspace.Workspace, target int, strategy Strategy,
	action Action, seed int64) (ReduceResult, error) {

	total := len(ws.Images)

	if total <= target {
		return ReduceResult{Kept: total}, nil
	}

	keep := selectKept(total, target, strategy, seed)

	res := ReduceResult{Kept: len(keep)}

	for i, img := range ws.Images {

		if _, ok := keep[i]; ok {
			continue
		}

		if err := discard(ws, img, action); err != nil {
			return res, err
		}

		res.Removed++
	}

	zap.L().Info("dataset reduced",
		zap.Int("kept", res.Kept),
		zap.Int("removed", res.Removed))

	return res, nil
}

// selectKept picks the indices to keep: the sequence is cut into target
// segments and one index survives per segment.
func selectKept(total, target int, strategy Strategy, seed int64) map[int]struct{} {

	keep := make(map[int]struct{}, target)

	if target <= 0 {
		return keep
	}

	switch strategy {
	case Uniform:
		base := float64(total) / float64(target)

		for i := 0; i < target; i++ {
			idx := int((float64(i) + 0.5) * base)

			if idx > total-1 {
				idx = total - 1
			}

			keep[idx] = struct{}{}
		}

	default:
		rnd := rand.New(rand.NewSource(seed))
		base := total / target
		rem := total % target
		start := 0

		for i := 0; i < target; i++ {
			segSize := base

			if i < rem {
				segSize++
			}

			keep[start+rnd.Intn(segSize)] = struct{}{}
			start += segSize
		}
	}

	return keep
}

// discard moves or deletes one image and its label file.
func discard(ws *workspace.Workspace, imagePath string, action Action) error {

	labelPath := ws.LabelPath(imagePath)

	if action == Delete {

		if err := os.Remove(imagePath); err != nil {
			return fmt.Errorf("%w: removing %s: %v", labelkit.ErrIOFailure, imagePath, err)
		}

		if err := os.Remove(labelPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: removing %s: %v", labelkit.ErrIOFailure, labelPath, err)
		}

		return nil
	}

	skipImages := filepath.Join(ws.Root, SkippedDirName, "images")
	skipLabels := filepath.Join(ws.Root, SkippedDirName, "labels")

	for _, dir := range []string{skipImages, skipLabels} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, dir, err)
		}
	}

	dst := filepath.Join(skipImages, filepath.Base(imagePath))

	if err := os.Rename(imagePath, dst); err != nil {
		return fmt.Errorf("%w: moving %s: %v", labelkit.ErrIOFailure, imagePath, err)
	}

	if _, err := os.Stat(labelPath); err == nil {
		dst := filepath.Join(skipLabels, filepath.Base(labelPath))

		if err := os.Rename(labelPath, dst); err != nil {
			return fmt.Errorf("%w: moving %s: %v", labelkit.ErrIOFailure, labelPath, err)
		}
	}

	return nil
}
