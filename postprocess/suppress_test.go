package postprocess

import (
	"math"
	"testing"

	"github.com/labelkit/go-labelkit"
)

func TestSuppressConfidenceFilter(t *testing.T) {

	th := DefaultThresholds()
	th.PerClass = map[int]ClassThreshold{
		1: {Confidence: 0.6, IOU: 0.45},
	}

	cands := []Candidate{
		{Class: 0, Confidence: 0.3, Rect: labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}},
		{Class: 0, Confidence: 0.2, Rect: labelkit.Rect{X0: 100, Y0: 100, X1: 110, Y1: 110}},
		{Class: 1, Confidence: 0.5, Rect: labelkit.Rect{X0: 200, Y0: 200, X1: 210, Y1: 210}},
		{Class: 1, Confidence: 0.7, Rect: labelkit.Rect{X0: 300, Y0: 300, X1: 310, Y1: 310}},
	}

	got := Suppress(cands, th)

	// class 0 falls back to the 0.25 default, class 1 uses its 0.6
	// override
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}

	for _, c := range got {
		if c.Class == 0 && c.Confidence != 0.3 {
			t.Errorf("wrong class 0 survivor: %+v", c)
		}
		if c.Class == 1 && c.Confidence != 0.7 {
			t.Errorf("wrong class 1 survivor: %+v", c)
		}
	}
}

// Two overlapping boxes of class 0 at confidences 0.9 and 0.4 with IOU
// about 0.7 against an IOU max of 0.5: only the 0.9 box survives.
func TestSuppressOverlappingPair(t *testing.T) {

	th := DefaultThresholds()
	th.Default.IOU = 0.5

	a := labelkit.Rect{X0: 100, Y0: 100, X1: 300, Y1: 300}
	b := labelkit.Rect{X0: 135, Y0: 100, X1: 335, Y1: 300}

	if iou := IOU(a, b); iou < 0.65 || iou > 0.75 {
		t.Fatalf("fixture IOU = %g, expected about 0.7", iou)
	}

	got := Suppress([]Candidate{
		{Class: 0, Confidence: 0.4, Rect: b},
		{Class: 0, Confidence: 0.9, Rect: a},
	}, th)

	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}

	if got[0].Confidence != 0.9 {
		t.Errorf("wrong survivor: %+v", got[0])
	}
}

func TestSuppressClassWise(t *testing.T) {

	th := DefaultThresholds()

	// identical rectangles but different classes never suppress each
	// other
	r := labelkit.Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}

	got := Suppress([]Candidate{
		{Class: 0, Confidence: 0.9, Rect: r},
		{Class: 1, Confidence: 0.8, Rect: r},
	}, th)

	if len(got) != 2 {
		t.Errorf("cross-class suppression occurred, got %d candidates", len(got))
	}
}

// After suppression no two survivors of the same class may overlap at or
// above the configured IOU max.
func TestSuppressNMSProperty(t *testing.T) {

	th := DefaultThresholds()

	var cands []Candidate

	// staggered grid of overlapping boxes across two classes
	for i := 0; i < 12; i++ {
		x := float64(i) * 30
		cands = append(cands, Candidate{
			Class:      i % 2,
			Confidence: 0.3 + float32(i)*0.05,
			Rect:       labelkit.Rect{X0: x, Y0: 0, X1: x + 120, Y1: 100},
		})
	}

	got := Suppress(cands, th)

	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if got[i].Class != got[j].Class {
				continue
			}
			if iou := IOU(got[i].Rect, got[j].Rect); iou >= th.ForClass(got[i].Class).IOU {
				t.Errorf("survivors %d and %d of class %d overlap with IOU %g",
					i, j, got[i].Class, iou)
			}
		}
	}
}

func TestSuppressStableTieBreak(t *testing.T) {

	th := DefaultThresholds()

	// equal confidence, heavy overlap: the candidate discovered first in
	// decode order must be the keeper
	first := labelkit.Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}
	second := labelkit.Rect{X0: 105, Y0: 100, X1: 205, Y1: 200}

	got := Suppress([]Candidate{
		{Class: 0, Confidence: 0.8, Rect: first},
		{Class: 0, Confidence: 0.8, Rect: second},
	}, th)

	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}

	if got[0].Rect != first {
		t.Errorf("tie-break kept the later candidate: %+v", got[0])
	}
}

func TestSuppressSkipsPresuppressed(t *testing.T) {

	th := DefaultThresholds()

	r := labelkit.Rect{X0: 100, Y0: 100, X1: 200, Y1: 200}

	got := Suppress([]Candidate{
		{Class: 0, Confidence: 0.9, Rect: r, Format: FormatV26},
		{Class: 0, Confidence: 0.8, Rect: r, Format: FormatV26},
		{Class: 0, Confidence: 0.1, Rect: r, Format: FormatV26}, // conf filter still applies
	}, th)

	if len(got) != 2 {
		t.Errorf("v26 candidates must bypass IOU suppression, got %d", len(got))
	}
}

func TestSuppressEmpty(t *testing.T) {

	if got := Suppress(nil, DefaultThresholds()); got != nil {
		t.Errorf("empty input must yield empty output, got %v", got)
	}

	// everything under threshold is a valid empty result
	got := Suppress([]Candidate{
		{Class: 0, Confidence: 0.01, Rect: labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}},
	}, DefaultThresholds())

	if got != nil {
		t.Errorf("all-filtered input must yield empty output, got %v", got)
	}
}

func TestIOU(t *testing.T) {

	tests := []struct {
		name string
		a, b labelkit.Rect
		want float64
	}{
		{
			name: "identical",
			a:    labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			b:    labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			want: 1,
		},
		{
			name: "disjoint",
			a:    labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			b:    labelkit.Rect{X0: 20, Y0: 20, X1: 30, Y1: 30},
			want: 0,
		},
		{
			name: "half overlap",
			a:    labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			b:    labelkit.Rect{X0: 5, Y0: 0, X1: 15, Y1: 10},
			want: 1.0 / 3.0,
		},
		{
			name: "touching edges",
			a:    labelkit.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10},
			b:    labelkit.Rect{X0: 10, Y0: 0, X1: 20, Y1: 10},
			want: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IOU(tc.a, tc.b); math.Abs(float64(got)-tc.want) > 1e-6 {
				t.Errorf("IOU = %g, want %g", got, tc.want)
			}
		})
	}
}

func TestBoxes(t *testing.T) {

	cands := []Candidate{
		{Class: 1, Confidence: 0.9, Rect: labelkit.Rect{X0: 160, Y0: 120, X1: 480, Y1: 360}},
		{Class: 0, Confidence: 0.8, Rect: labelkit.Rect{X0: 50, Y0: 50, X1: 50, Y1: 80}}, // degenerate
	}

	got := Boxes(cands, 640, 480)

	// the degenerate candidate is dropped individually
	if len(got) != 1 {
		t.Fatalf("got %d boxes, want 1", len(got))
	}

	want := labelkit.Box{Class: 1, CX: 0.5, CY: 0.5, W: 0.5, H: 0.5}

	if !got[0].Equal(want) {
		t.Errorf("got %+v, want %+v", got[0], want)
	}
}
