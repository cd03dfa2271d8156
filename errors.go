package labelkit

import "errors"

var (
	// ErrDegenerateBox is returned for rectangles with zero or negative
	// width or height
	ErrDegenerateBox = errors.New("degenerate box")

	// ErrInvalidGeometry is returned when image dimensions are zero or
	// negative
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidClass is returned when a box references a class id outside
	// the known class list
	ErrInvalidClass = errors.New("invalid class id")

	// ErrUnknownFormat is returned when a model output tensor matches none
	// of the known YOLO layouts
	ErrUnknownFormat = errors.New("unknown model output format")

	// ErrIOFailure wraps label file read and write errors
	ErrIOFailure = errors.New("label file io failure")
)
