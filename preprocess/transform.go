package preprocess

// Transform holds the letterbox mapping between a source image and the
// model input canvas: a uniform scale plus x/y padding.  Decoded model
// coordinates are mapped back to source pixels through ToSource.
type Transform struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the model input width
	destWidth int
	// destHeight is the model input height
	destHeight int
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions before padding
	resizeW int
	resizeH int
}

// NewTransform returns the letterbox transform for scaling a source image
// to the given model input dimensions.
func NewTransform(srcWidth, srcHeight, destWidth, destHeight int) *Transform {
	t := &Transform{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
	}

	// precalculate scaling dimensions
	t.preCalc()

	return t
}

// preCalc the scaling factors for source and destination dimensions
func (t *Transform) preCalc() {

	t.resizeW = t.destWidth
	t.resizeH = t.destHeight

	scaleW := float32(t.destWidth) / float32(t.srcWidth)
	scaleH := float32(t.destHeight) / float32(t.srcHeight)
	t.scale = scaleH

	if scaleW < scaleH {
		t.scale = scaleW
		t.resizeH = int(float32(t.srcHeight) * t.scale)
	} else {
		t.resizeW = int(float32(t.srcWidth) * t.scale)
	}

	t.yPad = (t.destHeight - t.resizeH) / 2 // padding height / 2
	t.xPad = (t.destWidth - t.resizeW) / 2  // padding width / 2
}

// ToSource maps a point in model input coordinates back to source image
// coordinates by undoing the letterbox padding and scaling.
func (t *Transform) ToSource(x, y float32) (float32, float32) {
	return (x - float32(t.xPad)) / t.scale, (y - float32(t.yPad)) / t.scale
}

// ScaleFactor returns the scale factor used in letterbox resize
func (t *Transform) ScaleFactor() float32 {
	return t.scale
}

// XPad returns the x padding used in letterbox resize
func (t *Transform) XPad() int {
	return t.xPad
}

// YPad returns the y padding used in letterbox resize
func (t *Transform) YPad() int {
	return t.yPad
}

// SrcWidth returns the width of the source image
func (t *Transform) SrcWidth() int {
	return t.srcWidth
}

// SrcHeight returns the height of the source image
func (t *Transform) SrcHeight() int {
	return t.srcHeight
}

// DestWidth returns the model input width
func (t *Transform) DestWidth() int {
	return t.destWidth
}

// DestHeight returns the model input height
func (t *Transform) DestHeight() int {
	return t.destHeight
}
