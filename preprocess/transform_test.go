package preprocess

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestTransform(t *testing.T) {

	tests := []struct {
		srcWidth      int
		srcHeight     int
		destWidth     int
		destHeight    int
		expectedXPad  int
		expectedYPad  int
		expectedScale float32
	}{
		{1280, 720, 640, 640, 0, 140, 0.50},
		{800, 1000, 640, 640, 64, 0, 0.64},
		{800, 800, 640, 640, 0, 0, 0.8},
	}

	for _, tc := range tests {
		tr := NewTransform(tc.srcWidth, tc.srcHeight, tc.destWidth, tc.destHeight)

		if tr.XPad() != tc.expectedXPad || tr.YPad() != tc.expectedYPad {
			t.Errorf("Test failed for src (%d, %d): Padding values wrong, expected XPad=%d, YPad=%d, got xPad=%d, yPad=%d",
				tc.srcWidth, tc.srcHeight, tc.expectedXPad, tc.expectedYPad, tr.XPad(), tr.YPad())
		}

		if tr.ScaleFactor() != tc.expectedScale {
			t.Errorf("Test failed for src (%d, %d): Scalefactor incorrect, expected %f, got %f",
				tc.srcWidth, tc.srcHeight, tc.expectedScale, tr.ScaleFactor())
		}
	}
}

func TestToSource(t *testing.T) {

	// 1280x720 letterboxed to 640x640 scales by 0.5 and pads 140px top
	tr := NewTransform(1280, 720, 640, 640)

	tests := []struct {
		x, y       float32
		wantX, wantY float32
	}{
		{0, 140, 0, 0},
		{640, 500, 1280, 720},
		{320, 320, 640, 360},
	}

	const tol = 1e-4

	for _, tc := range tests {
		gotX, gotY := tr.ToSource(tc.x, tc.y)

		if math.Abs(float64(gotX-tc.wantX)) > tol || math.Abs(float64(gotY-tc.wantY)) > tol {
			t.Errorf("ToSource(%g, %g) = (%g, %g), want (%g, %g)",
				tc.x, tc.y, gotX, gotY, tc.wantX, tc.wantY)
		}
	}
}

func TestLetterbox(t *testing.T) {

	src := image.NewNRGBA(image.Rect(0, 0, 1280, 720))

	// fill source with a solid color so padding is distinguishable
	fillClr := color.NRGBA{R: 200, G: 10, B: 10, A: 255}
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			src.SetNRGBA(x, y, fillClr)
		}
	}

	tr := NewTransform(1280, 720, 640, 640)
	out := Letterbox(src, tr, color.NRGBA{A: 255})

	if out.Bounds().Dx() != 640 || out.Bounds().Dy() != 640 {
		t.Fatalf("letterbox output is %v, want 640x640", out.Bounds())
	}

	// top padding band must remain the fill color
	if got := out.NRGBAAt(320, 70); got.R != 0 {
		t.Errorf("expected padding at (320,70), got %+v", got)
	}

	// image center must carry source content
	if got := out.NRGBAAt(320, 320); got.R < 100 {
		t.Errorf("expected source content at (320,320), got %+v", got)
	}
}
