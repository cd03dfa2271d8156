package postprocess

import (
	"github.com/labelkit/go-labelkit"
)

// Format identifies the YOLO model family an output tensor was produced
// by, which fixes the row layout used to decode it.
type Format int

const (
	// FormatAuto detects the family from the tensor shape
	FormatAuto Format = iota
	// FormatV5 rows are [cx cy w h objectness class scores...]
	FormatV5
	// FormatV8 covers the v8 and v11 families, rows are
	// [cx cy w h class scores...] with no objectness column
	FormatV8
	// FormatV26 is NMS-free, rows are final detections
	// [x1 y1 x2 y2 confidence class]
	FormatV26
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatV5:
		return "v5"
	case FormatV8:
		return "v8/v11"
	case FormatV26:
		return "v26"
	}
	return "auto"
}

// Presuppressed reports whether the family emits final boxes that must
// not go through IOU suppression again.
func (f Format) Presuppressed() bool {
	return f == FormatV26
}

// Candidate is one raw detection in source image pixel space, produced
// by the decoder and consumed within a single auto-annotate call.
type Candidate struct {
	// Class is the class id with the highest score for this row
	Class int
	// Confidence is the detection confidence in [0,1]
	Confidence float32
	// Rect is the bounding box in source image pixels
	Rect labelkit.Rect
	// Format tags the model family that produced the candidate
	Format Format
}
