package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/labelkit/go-labelkit"
)

// AnnotationBoxes draws the bounding boxes and their class labels onto
// the image.  Box colors follow the class id, labels sit above the box
// on a filled background.
func AnnotationBoxes(img *image.RGBA, boxes []labelkit.Box,
	classes labelkit.Classes, fnt Font, lineThickness int) {

	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()

	for _, b := range boxes {

		rect, err := labelkit.ToPixels(b, imgW, imgH)

		if err != nil {
			continue
		}

		clr := ClassColor(b.Class)

		r := image.Rect(int(rect.X0), int(rect.Y0), int(rect.X1), int(rect.Y1))
		drawOutline(img, r, clr, lineThickness)

		drawLabel(img, classes.Name(b.Class), image.Pt(r.Min.X, r.Min.Y), clr, fnt)
	}
}

// Preview copies the source image and draws the boxes onto the copy
// with default settings.
func Preview(src image.Image, boxes []labelkit.Box, classes labelkit.Classes) *image.RGBA {

	out := image.NewRGBA(src.Bounds())
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)

	AnnotationBoxes(out, boxes, classes, DefaultFont(), 2)

	return out
}

// drawOutline draws the four edges of the rectangle at the given
// thickness, growing inwards.
func drawOutline(img *image.RGBA, r image.Rectangle, clr color.RGBA, thickness int) {

	if thickness < 1 {
		thickness = 1
	}

	r = r.Intersect(img.Bounds())

	if r.Empty() {
		return
	}

	top := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness)
	bottom := image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y)
	left := image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y)
	right := image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y)

	for _, edge := range []image.Rectangle{top, bottom, left, right} {
		draw.Draw(img, edge.Intersect(img.Bounds()), image.NewUniform(clr), image.Point{}, draw.Src)
	}
}

// drawLabel paints the class name above the box anchor on a filled
// background, shifting inside the image when the box touches the top.
func drawLabel(img *image.RGBA, text string, anchor image.Point, clr color.RGBA, fnt Font) {

	metrics := fnt.Face.Metrics()
	textH := metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	textW := font.MeasureString(fnt.Face, text).Ceil()

	boxH := textH + fnt.TopPad + fnt.BottomPad
	boxW := textW + fnt.LeftPad + fnt.RightPad

	bg := image.Rect(anchor.X, anchor.Y-boxH, anchor.X+boxW, anchor.Y)

	// keep the label on the image when the box touches the top edge
	if bg.Min.Y < img.Bounds().Min.Y {
		bg = bg.Add(image.Pt(0, boxH))
	}

	draw.Draw(img, bg.Intersect(img.Bounds()), image.NewUniform(clr), image.Point{}, draw.Src)

	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fnt.Color),
		Face: fnt.Face,
		Dot: fixed.P(bg.Min.X+fnt.LeftPad,
			bg.Min.Y+fnt.TopPad+metrics.Ascent.Ceil()),
	}

	d.DrawString(text)
}
