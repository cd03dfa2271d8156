// Package store holds the in-memory annotation set for the active image
// and its undo/redo history.  Every mutation goes through an EditOp so
// it can be undone exactly.
package store

import (
	"fmt"

	"github.com/labelkit/go-labelkit"
)

// EditOp is one reversible mutation of the working set.  Applying the op
// returned by invert exactly reconstructs the prior set.
type EditOp interface {
	// bind validates the op against the current set and class count and
	// returns a completed copy carrying the before-state it needs to be
	// self-invertible
	bind(boxes []labelkit.Box, classCount int) (EditOp, error)
	// apply returns the set after the mutation, leaving the input intact
	apply(boxes []labelkit.Box) []labelkit.Box
	// invert returns the op that undoes this one
	invert() EditOp
}

// Add appends one box to the working set.
type Add struct {
	Box labelkit.Box

	// index the box was appended at, captured when the op is bound
	index int
}

func (op Add) bind(boxes []labelkit.Box, classCount int) (EditOp, error) {

	if err := checkClass(op.Box, classCount); err != nil {
		return nil, err
	}

	if op.Box.W <= 0 || op.Box.H <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", labelkit.ErrDegenerateBox, op.Box.W, op.Box.H)
	}

	op.index = len(boxes)
	return op, nil
}

func (op Add) apply(boxes []labelkit.Box) []labelkit.Box {
	out := make([]labelkit.Box, 0, len(boxes)+1)
	out = append(out, boxes...)
	return append(out, op.Box)
}

func (op Add) invert() EditOp {
	return Remove{Index: op.index, Box: op.Box}
}

// Remove deletes the box at Index.  Box is captured on bind so the op
// can restore it on undo.
type Remove struct {
	Index int
	Box   labelkit.Box
}

func (op Remove) bind(boxes []labelkit.Box, classCount int) (EditOp, error) {

	if op.Index < 0 || op.Index >= len(boxes) {
		return nil, fmt.Errorf("remove: index %d out of range [0,%d)", op.Index, len(boxes))
	}

	op.Box = boxes[op.Index]
	return op, nil
}

func (op Remove) apply(boxes []labelkit.Box) []labelkit.Box {
	out := make([]labelkit.Box, 0, len(boxes)-1)
	out = append(out, boxes[:op.Index]...)
	return append(out, boxes[op.Index+1:]...)
}

func (op Remove) invert() EditOp {
	return insert{Index: op.Index, Box: op.Box}
}

// insert is the inverse of Remove: it restores a box at its previous
// position.  It never originates from a caller.
type insert struct {
	Index int
	Box   labelkit.Box
}

func (op insert) bind(boxes []labelkit.Box, classCount int) (EditOp, error) {

	if op.Index < 0 || op.Index > len(boxes) {
		return nil, fmt.Errorf("insert: index %d out of range [0,%d]", op.Index, len(boxes))
	}

	return op, nil
}

func (op insert) apply(boxes []labelkit.Box) []labelkit.Box {
	out := make([]labelkit.Box, 0, len(boxes)+1)
	out = append(out, boxes[:op.Index]...)
	out = append(out, op.Box)
	return append(out, boxes[op.Index:]...)
}

func (op insert) invert() EditOp {
	return Remove{Index: op.Index, Box: op.Box}
}

// Modify replaces the box at Index with After.  Before is captured on
// bind.
type Modify struct {
	Index  int
	Before labelkit.Box
	After  labelkit.Box
}

func (op Modify) bind(boxes []labelkit.Box, classCount int) (EditOp, error) {

	if op.Index < 0 || op.Index >= len(boxes) {
		return nil, fmt.Errorf("modify: index %d out of range [0,%d)", op.Index, len(boxes))
	}

	if err := checkClass(op.After, classCount); err != nil {
		return nil, err
	}

	if op.After.W <= 0 || op.After.H <= 0 {
		return nil, fmt.Errorf("%w: %gx%g", labelkit.ErrDegenerateBox, op.After.W, op.After.H)
	}

	op.Before = boxes[op.Index]
	return op, nil
}

func (op Modify) apply(boxes []labelkit.Box) []labelkit.Box {
	out := make([]labelkit.Box, len(boxes))
	copy(out, boxes)
	out[op.Index] = op.After
	return out
}

func (op Modify) invert() EditOp {
	return Modify{Index: op.Index, Before: op.After, After: op.Before}
}

// BatchReplace swaps the entire working set in one undoable step.  Used
// for auto-annotation results and the clear operations.
type BatchReplace struct {
	Before []labelkit.Box
	After  []labelkit.Box
}

func (op BatchReplace) bind(boxes []labelkit.Box, classCount int) (EditOp, error) {

	// class violations reject the whole batch, nothing partially applied
	for _, b := range op.After {
		if err := checkClass(b, classCount); err != nil {
			return nil, err
		}
	}

	// degenerate boxes are skipped individually without failing the batch
	after := make([]labelkit.Box, 0, len(op.After))

	for _, b := range op.After {
		if b.W <= 0 || b.H <= 0 {
			continue
		}
		after = append(after, b)
	}

	op.Before = append([]labelkit.Box(nil), boxes...)
	op.After = after

	return op, nil
}

func (op BatchReplace) apply(boxes []labelkit.Box) []labelkit.Box {
	return append([]labelkit.Box(nil), op.After...)
}

func (op BatchReplace) invert() EditOp {
	return BatchReplace{Before: op.After, After: op.Before}
}

// checkClass validates a box class id against the known class count.
func checkClass(b labelkit.Box, classCount int) error {

	if b.Class < 0 || b.Class >= classCount {
		return fmt.Errorf("%w: %d with %d classes", labelkit.ErrInvalidClass,
			b.Class, classCount)
	}

	return nil
}
