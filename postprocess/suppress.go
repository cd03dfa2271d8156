package postprocess

import (
	"sort"

	"github.com/labelkit/go-labelkit"
)

// ClassThreshold is the confidence and IOU limit applied to one class.
type ClassThreshold struct {
	// Confidence is the minimum confidence for a detection to be kept
	Confidence float32 `yaml:"confidence"`
	// IOU is the maximum allowed overlap between two kept detections of
	// the same class
	IOU float32 `yaml:"iou"`
}

// Thresholds maps classes to their confidence/IOU limits with a wildcard
// default for classes without an override.
type Thresholds struct {
	Default  ClassThreshold         `yaml:"default"`
	PerClass map[int]ClassThreshold `yaml:"per_class,omitempty"`
}

// DefaultThresholds returns the standard thresholds: confidence 0.25,
// IOU 0.45 for every class.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Default: ClassThreshold{
			Confidence: 0.25,
			IOU:        0.45,
		},
	}
}

// ForClass returns the threshold for the given class, falling back to
// the default when the class has no override.
func (t Thresholds) ForClass(id int) ClassThreshold {

	if ct, ok := t.PerClass[id]; ok {
		return ct
	}

	return t.Default
}

// Suppress applies per-class confidence filtering and class-wise greedy
// non-maximum suppression to candidates.  Candidates tagged as
// pre-suppressed skip the IOU step but still get confidence filtered.
// Suppress never fails, an empty result is valid.
func Suppress(cands []Candidate, th Thresholds) []Candidate {

	filtered := make([]Candidate, 0, len(cands))

	for _, c := range cands {
		if c.Confidence >= th.ForClass(c.Class).Confidence {
			filtered = append(filtered, c)
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	// stable sort keeps decode order for equal confidences
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Confidence > filtered[j].Confidence
	})

	keep := make([]Candidate, 0, len(filtered))
	used := make([]bool, len(filtered))

	for i := range filtered {
		if used[i] {
			continue
		}

		keep = append(keep, filtered[i])

		if filtered[i].Format.Presuppressed() {
			continue
		}

		iouMax := th.ForClass(filtered[i].Class).IOU

		for j := i + 1; j < len(filtered); j++ {
			if used[j] {
				continue
			}

			if filtered[j].Class != filtered[i].Class {
				continue
			}

			if filtered[j].Format.Presuppressed() {
				continue
			}

			if IOU(filtered[i].Rect, filtered[j].Rect) >= iouMax {
				used[j] = true
			}
		}
	}

	return keep
}

// IOU returns the intersection over union of two rectangles.
func IOU(a, b labelkit.Rect) float32 {

	x0 := maxF(a.X0, b.X0)
	y0 := maxF(a.Y0, b.Y0)
	x1 := minF(a.X1, b.X1)
	y1 := minF(a.Y1, b.Y1)

	if x1 <= x0 || y1 <= y0 {
		return 0
	}

	intersection := (x1 - x0) * (y1 - y0)

	area0 := a.Width() * a.Height()
	area1 := b.Width() * b.Height()

	union := area0 + area1 - intersection

	if union <= 0 {
		return 0
	}

	return float32(intersection / union)
}

// Boxes converts surviving candidates into normalized boxes for the
// given image dimensions.  Candidates whose conversion degenerates are
// dropped individually without affecting the rest.
func Boxes(cands []Candidate, imgW, imgH int) []labelkit.Box {

	out := make([]labelkit.Box, 0, len(cands))

	for _, c := range cands {
		b, err := labelkit.ToNormalized(c.Rect, imgW, imgH)

		if err != nil {
			continue
		}

		b.Class = c.Class
		out = append(out, b)
	}

	return out
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
