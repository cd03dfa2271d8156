// Package dataset implements workspace-level operations: validation,
// reduction, and YOLO zip export/import.
package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/workspace"
)

// ClassStats holds the per-class annotation statistics.
type ClassStats struct {
	// Count is the number of annotations
	Count int
	// AreaMean and AreaStdDev are over the normalized box areas
	AreaMean   float64
	AreaStdDev float64
}

// Report summarizes a workspace validation pass.
type Report struct {
	TotalImages      int
	Labeled          int
	Unlabeled        int
	TotalAnnotations int
	// PerClass maps class id to its statistics
	PerClass map[int]ClassStats
	// OutOfRange lists file:line references whose class id exceeds the
	// class list
	OutOfRange []string
	// DuplicateStems groups image files sharing a stem across extensions
	DuplicateStems [][]string
	// Issues block export, Warnings do not
	Issues   []string
	Warnings []string
}

// Validate walks the workspace and reports annotation statistics and
// dataset problems.  Nothing on disk is modified.
func Validate(ws *workspace.Workspace) (*Report, error) {

	r := &Report{PerClass: make(map[int]ClassStats)}

	r.TotalImages = len(ws.Images)

	if r.TotalImages == 0 {
		r.Issues = append(r.Issues, "no images found in workspace")
		return r, nil
	}

	r.findDuplicateStems(ws.Images)

	areas := make(map[int][]float64)

	for _, img := range ws.Images {

		labelPath := ws.LabelPath(img)

		if _, err := os.Stat(labelPath); err != nil {
			r.Unlabeled++
			continue
		}

		r.Labeled++

		if err := r.scanLabels(labelPath, ws.Classes.Count(), areas); err != nil {
			return nil, err
		}
	}

	for id, a := range areas {
		r.PerClass[id] = ClassStats{
			Count:      len(a),
			AreaMean:   stat.Mean(a, nil),
			AreaStdDev: stat.StdDev(a, nil),
		}
	}

	if r.Labeled == 0 {
		r.Issues = append(r.Issues, "no labeled images found")
	}

	return r, nil
}

// findDuplicateStems flags image files sharing a name across extensions,
// since they would collide on one label file.
func (r *Report) findDuplicateStems(images []string) {

	stems := make(map[string][]string)

	for _, img := range images {
		stem := strings.ToLower(workspace.Stem(img))
		stems[stem] = append(stems[stem], filepath.Base(img))
	}

	keys := make([]string, 0, len(stems))

	for stem := range stems {
		keys = append(keys, stem)
	}

	sort.Strings(keys)

	for _, stem := range keys {
		files := stems[stem]

		if len(files) > 1 {
			r.DuplicateStems = append(r.DuplicateStems, files)
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("duplicate stems: %s", strings.Join(files, ", ")))
		}
	}
}

// scanLabels tallies annotations from one label file, recording class
// counts, normalized areas and out-of-range class references.
func (r *Report) scanLabels(path string, classCount int, areas map[int][]float64) error {

	f, err := os.Open(path)

	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", labelkit.ErrIOFailure, path, err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0

	for scanner.Scan() {
		lineNo++

		parts := strings.Fields(scanner.Text())

		if len(parts) < 5 {
			continue
		}

		id, err := strconv.Atoi(parts[0])

		if err != nil {
			continue
		}

		if classCount > 0 && (id < 0 || id >= classCount) {
			ref := fmt.Sprintf("%s:%d", filepath.Base(path), lineNo)
			r.OutOfRange = append(r.OutOfRange, ref)
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("class %d out of range at %s", id, ref))
			continue
		}

		w, errW := strconv.ParseFloat(parts[3], 64)
		h, errH := strconv.ParseFloat(parts[4], 64)

		if errW != nil || errH != nil {
			continue
		}

		r.TotalAnnotations++
		areas[id] = append(areas[id], w*h)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading %s: %v", labelkit.ErrIOFailure, path, err)
	}

	return nil
}

// String renders the report for terminal output.
func (r *Report) String() string {

	var b strings.Builder

	fmt.Fprintf(&b, "images: %d (%d labeled, %d unlabeled)\n",
		r.TotalImages, r.Labeled, r.Unlabeled)
	fmt.Fprintf(&b, "annotations: %d\n", r.TotalAnnotations)

	ids := make([]int, 0, len(r.PerClass))

	for id := range r.PerClass {
		ids = append(ids, id)
	}

	sort.Ints(ids)

	for _, id := range ids {
		s := r.PerClass[id]
		fmt.Fprintf(&b, "  class %d: %d boxes, area mean %.4f stddev %.4f\n",
			id, s.Count, s.AreaMean, s.AreaStdDev)
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}

	for _, i := range r.Issues {
		fmt.Fprintf(&b, "issue: %s\n", i)
	}

	return b.String()
}
