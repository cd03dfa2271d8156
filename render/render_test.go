package render

import (
	"image"
	"testing"

	"github.com/labelkit/go-labelkit"
)

func TestClassColorDeterministic(t *testing.T) {

	for _, id := range []int{0, 5, 19, 20, 37, 100} {
		if ClassColor(id) != ClassColor(id) {
			t.Errorf("class %d color not stable", id)
		}
	}

	// base palette ids map directly
	if ClassColor(0) != classColors[0] {
		t.Error("class 0 must use the first base color")
	}

	// generated hues must differ between adjacent ids
	if ClassColor(20) == ClassColor(21) {
		t.Error("adjacent generated colors collide")
	}

	if c := ClassColor(-1); c != classColors[0] {
		t.Errorf("negative id color %v", c)
	}
}

func TestPreviewDrawsBoxes(t *testing.T) {

	src := image.NewRGBA(image.Rect(0, 0, 200, 200))

	boxes := []labelkit.Box{
		{Class: 0, CX: 0.5, CY: 0.5, W: 0.4, H: 0.4},
	}

	out := Preview(src, boxes, labelkit.Classes{"person"})

	if out.Bounds() != src.Bounds() {
		t.Fatalf("bounds changed: %v", out.Bounds())
	}

	// box spans (60,60)-(140,140), the outline must paint its color
	clr := ClassColor(0)

	if got := out.RGBAAt(61, 100); got != clr {
		t.Errorf("left edge not painted: %v", got)
	}

	if got := out.RGBAAt(100, 61); got != clr {
		t.Errorf("top edge not painted: %v", got)
	}

	// interior stays untouched
	if got := out.RGBAAt(100, 100); got == clr {
		t.Error("interior was filled")
	}
}

func TestPreviewSkipsDegenerateBoxes(t *testing.T) {

	src := image.NewRGBA(image.Rect(0, 0, 100, 100))

	boxes := []labelkit.Box{
		{Class: 0, CX: 0.5, CY: 0.5, W: 0, H: 0},
	}

	// must not panic, the degenerate box is simply not drawn
	out := Preview(src, boxes, labelkit.Classes{"person"})

	if out == nil {
		t.Fatal("nil preview")
	}
}

func TestDrawOutlineClipsToImage(t *testing.T) {

	img := image.NewRGBA(image.Rect(0, 0, 50, 50))

	// rectangle partially outside the canvas
	drawOutline(img, image.Rect(-10, -10, 30, 30), ClassColor(1), 2)

	if got := img.RGBAAt(15, 29); got != ClassColor(1) {
		t.Errorf("bottom edge not painted: %v", got)
	}
}
