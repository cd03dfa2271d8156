package postprocess

import (
	"fmt"

	"github.com/labelkit/go-labelkit"
)

// v26RowWidth is the fixed row width of the NMS-free final detection
// schema [x1 y1 x2 y2 confidence class].
const v26RowWidth = 6

// DetectFormat resolves an auto format declaration from the tensor row
// width and the workspace class count.  The rules run in order, so a
// layout consistent with the class count wins over the fixed v26 schema
// when both match (e.g. 2 classes makes 4+N collide with 6 columns).
func DetectFormat(cols, classCount int) (Format, error) {

	switch {
	case classCount > 0 && cols == 5+classCount:
		return FormatV5, nil

	case classCount > 0 && cols == 4+classCount:
		return FormatV8, nil

	case cols == v26RowWidth:
		return FormatV26, nil
	}

	return FormatAuto, fmt.Errorf("%w: %d columns for %d classes",
		labelkit.ErrUnknownFormat, cols, classCount)
}
