package preprocess

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Letterbox resizes the source image onto the model input canvas while
// maintaining aspect, padding the remainder with fill.  The returned
// image has the transform's destination dimensions.
func Letterbox(src image.Image, t *Transform, fill color.Color) *image.NRGBA {

	resized := imaging.Resize(src, t.resizeW, t.resizeH, imaging.Linear)

	canvas := imaging.New(t.destWidth, t.destHeight, fill)

	return imaging.Paste(canvas, resized, image.Pt(t.xPad, t.yPad))
}
