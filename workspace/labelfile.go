package workspace

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
)

// ReadLabelFile parses a YOLO label file, one `class cx cy w h` line per
// box.  The reader is tolerant: malformed or out-of-range lines are
// skipped with a warning, never aborting the load.  Coordinates go
// through the save-time clamping rules so stale files normalise on the
// way in.
func ReadLabelFile(path string, classCount int) ([]labelkit.Box, error) {

	f, err := os.Open(path)

	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", labelkit.ErrIOFailure, path, err)
	}

	defer f.Close()

	var boxes []labelkit.Box

	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		box, ok := parseLabelLine(line, classCount)

		if !ok {
			zap.L().Warn("skipping malformed label line",
				zap.String("file", filepath.Base(path)),
				zap.Int("line", lineNo))
			continue
		}

		boxes = append(boxes, box)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", labelkit.ErrIOFailure, path, err)
	}

	return boxes, nil
}

// parseLabelLine parses one `class cx cy w h` line.  Lines with extra
// fields are accepted, the tail is ignored.
func parseLabelLine(line string, classCount int) (labelkit.Box, bool) {

	parts := strings.Fields(line)

	if len(parts) < 5 {
		return labelkit.Box{}, false
	}

	class, err := strconv.Atoi(parts[0])

	if err != nil || class < 0 || class >= classCount {
		return labelkit.Box{}, false
	}

	var coords [4]float64

	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(parts[i+1], 64)

		if err != nil {
			return labelkit.Box{}, false
		}

		coords[i] = v
	}

	box := labelkit.ClampNormalized(labelkit.Box{
		Class: class,
		CX:    coords[0],
		CY:    coords[1],
		W:     coords[2],
		H:     coords[3],
	})

	return box, true
}

// WriteLabelFile serializes boxes to a label file in insertion order,
// overwriting it.  The write is atomic: content goes to a temporary
// file in the same directory which is then renamed over the target, so
// a crash never leaves a truncated file.
func WriteLabelFile(path string, boxes []labelkit.Box) error {

	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %v", labelkit.ErrIOFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".labelkit-*.tmp")

	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", labelkit.ErrIOFailure, dir, err)
	}

	defer func() {
		// no-ops once the rename has happened
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	w := bufio.NewWriter(tmp)

	for _, b := range boxes {
		b = labelkit.ClampNormalized(b)

		if _, err := fmt.Fprintf(w, "%d %.6f %.6f %.6f %.6f\n",
			b.Class, b.CX, b.CY, b.W, b.H); err != nil {
			return fmt.Errorf("%w: writing %s: %v", labelkit.ErrIOFailure, path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: writing %s: %v", labelkit.ErrIOFailure, path, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing %s: %v", labelkit.ErrIOFailure, tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: replacing %s: %v", labelkit.ErrIOFailure, path, err)
	}

	return nil
}
