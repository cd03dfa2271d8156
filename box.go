package labelkit

import (
	"fmt"
	"math"
)

// minExtent is the floor applied to width and height when clamping a box
// for saving, so a clamped box never degenerates.
const minExtent = 0.001

// Rect is an axis-aligned rectangle in pixel space.  X1/Y1 are exclusive
// of no pixel convention, they are plain float corner coordinates.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the rectangle width.
func (r Rect) Width() float64 {
	return r.X1 - r.X0
}

// Height returns the rectangle height.
func (r Rect) Height() float64 {
	return r.Y1 - r.Y0
}

// Box is one annotation.  Coordinates are the normalized YOLO form:
// center x, center y, width and height, each in [0,1] relative to the
// image dimensions.
type Box struct {
	// Class is the line number of the class name in the class list
	Class int
	// CX, CY are the box center
	CX, CY float64
	// W, H are the box extents
	W, H float64
	// Selected marks the box as selected in the UI.  It is ephemeral and
	// never persisted, and is excluded from equality.
	Selected bool
}

// Equal reports whether two boxes have the same class and coordinates.
// The Selected flag is ignored.
func (b Box) Equal(o Box) bool {
	return b.Class == o.Class &&
		b.CX == o.CX && b.CY == o.CY &&
		b.W == o.W && b.H == o.H
}

// CloseTo reports whether o has the same class and every coordinate
// within tol of b.  Used for detecting duplicate detections.
func (b Box) CloseTo(o Box, tol float64) bool {
	return b.Class == o.Class &&
		math.Abs(b.CX-o.CX) < tol &&
		math.Abs(b.CY-o.CY) < tol &&
		math.Abs(b.W-o.W) < tol &&
		math.Abs(b.H-o.H) < tol
}

// ToNormalized converts a pixel space rectangle to normalized box
// coordinates.  Bounds outside the image are clamped to the boundary.
// Returns ErrInvalidGeometry for non-positive image dimensions and
// ErrDegenerateBox when the clamped rectangle has no area.
func ToNormalized(r Rect, imgW, imgH int) (Box, error) {

	if imgW <= 0 || imgH <= 0 {
		return Box{}, fmt.Errorf("%w: image %dx%d", ErrInvalidGeometry, imgW, imgH)
	}

	x0 := clampF(r.X0/float64(imgW), 0, 1)
	y0 := clampF(r.Y0/float64(imgH), 0, 1)
	x1 := clampF(r.X1/float64(imgW), 0, 1)
	y1 := clampF(r.Y1/float64(imgH), 0, 1)

	w := x1 - x0
	h := y1 - y0

	if w <= 0 || h <= 0 {
		return Box{}, fmt.Errorf("%w: %gx%g", ErrDegenerateBox, w, h)
	}

	return Box{
		CX: x0 + w/2,
		CY: y0 + h/2,
		W:  w,
		H:  h,
	}, nil
}

// ToPixels converts normalized box coordinates back to a pixel space
// rectangle.  It is the exact inverse of ToNormalized up to floating
// point rounding.  Bounds outside the image are clamped to the boundary.
func ToPixels(b Box, imgW, imgH int) (Rect, error) {

	if imgW <= 0 || imgH <= 0 {
		return Rect{}, fmt.Errorf("%w: image %dx%d", ErrInvalidGeometry, imgW, imgH)
	}

	fw := float64(imgW)
	fh := float64(imgH)

	r := Rect{
		X0: clampF((b.CX-b.W/2)*fw, 0, fw),
		Y0: clampF((b.CY-b.H/2)*fh, 0, fh),
		X1: clampF((b.CX+b.W/2)*fw, 0, fw),
		Y1: clampF((b.CY+b.H/2)*fh, 0, fh),
	}

	if r.Width() <= 0 || r.Height() <= 0 {
		return Rect{}, fmt.Errorf("%w: %gx%g px", ErrDegenerateBox, r.Width(), r.Height())
	}

	return r, nil
}

// ClampNormalized applies the save-time clamping rules: the center is
// forced into [0,1] and the extents are shrunk so center plus or minus
// half extent stays inside the image, with a small floor so the box
// keeps positive area.
func ClampNormalized(b Box) Box {

	b.CX = clampF(b.CX, 0, 1)
	b.CY = clampF(b.CY, 0, 1)

	// left edge: cx-w/2 >= 0 means w <= 2*cx
	// right edge: cx+w/2 <= 1 means w <= 2*(1-cx)
	b.W = math.Min(b.W, math.Min(2*b.CX, 2*(1-b.CX)))
	b.H = math.Min(b.H, math.Min(2*b.CY, 2*(1-b.CY)))

	b.W = math.Max(minExtent, b.W)
	b.H = math.Max(minExtent, b.H)

	return b
}

// clampF restricts val to the range [min, max]
func clampF(val, min, max float64) float64 {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}
