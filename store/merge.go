package store

import (
	"github.com/labelkit/go-labelkit"
)

// DuplicateTolerance is the coordinate slack within which a detection is
// considered a duplicate of an existing box of the same class.
const DuplicateTolerance = 0.02

// MergeDetections builds the BatchReplace op that layers auto-annotation
// results on top of the current set: detections duplicating an existing
// box within tol are skipped, everything else is appended.  Prior manual
// edits survive and the whole merge stays one undoable step.
func MergeDetections(current, detected []labelkit.Box, tol float64) BatchReplace {

	if tol <= 0 {
		tol = DuplicateTolerance
	}

	after := append([]labelkit.Box(nil), current...)

	for _, d := range detected {
		if isDuplicate(d, after, tol) {
			continue
		}
		after = append(after, d)
	}

	return BatchReplace{
		Before: append([]labelkit.Box(nil), current...),
		After:  after,
	}
}

// ClearAll builds the BatchReplace op that empties the working set.
func ClearAll(current []labelkit.Box) BatchReplace {
	return BatchReplace{
		Before: append([]labelkit.Box(nil), current...),
		After:  nil,
	}
}

// ClearClass builds the BatchReplace op that removes every box of one
// class, preserving the order of the rest.
func ClearClass(current []labelkit.Box, class int) BatchReplace {

	after := make([]labelkit.Box, 0, len(current))

	for _, b := range current {
		if b.Class == class {
			continue
		}
		after = append(after, b)
	}

	return BatchReplace{
		Before: append([]labelkit.Box(nil), current...),
		After:  after,
	}
}

func isDuplicate(b labelkit.Box, existing []labelkit.Box, tol float64) bool {

	for _, e := range existing {
		if e.CloseTo(b, tol) {
			return true
		}
	}

	return false
}
