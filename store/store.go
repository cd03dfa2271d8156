package store

import (
	"github.com/labelkit/go-labelkit"
)

// Store owns the working annotation set for the active image.  It has a
// single logical owner and does no internal locking; auto-annotation
// results must be handed to the owner and applied as one BatchReplace.
type Store struct {
	boxes      []labelkit.Box
	classCount int
	hist       *history
	revision   uint64
}

// New returns an empty store with the default history cap.
func New() *Store {
	return &Store{
		hist: newHistory(DefaultHistoryCap),
	}
}

// Load replaces the working set with the boxes of a newly activated
// image and clears the history.  Must be called before any edit.
func (s *Store) Load(boxes []labelkit.Box, classCount int) {
	s.boxes = append(s.boxes[:0:0], boxes...)
	s.classCount = classCount
	s.hist.reset()
	s.revision++
}

// Apply validates and performs an edit, pushing it onto the undo stack
// and clearing redo.  Class violations reject the op entirely.
func (s *Store) Apply(op EditOp) error {

	bound, err := op.bind(s.boxes, s.classCount)

	if err != nil {
		return err
	}

	s.boxes = bound.apply(s.boxes)
	s.hist.record(bound)
	s.revision++

	return nil
}

// Undo reverts the most recent edit.  Returns false without effect when
// there is nothing to undo.
func (s *Store) Undo() bool {

	op, ok := s.hist.popUndo()

	if !ok {
		return false
	}

	s.boxes = op.invert().apply(s.boxes)
	s.revision++

	return true
}

// Redo re-applies the most recently undone edit.  Returns false without
// effect when there is nothing to redo.
func (s *Store) Redo() bool {

	op, ok := s.hist.popRedo()

	if !ok {
		return false
	}

	s.boxes = op.apply(s.boxes)
	s.revision++

	return true
}

// Boxes returns an ordered snapshot of the working set.
func (s *Store) Boxes() []labelkit.Box {
	return append([]labelkit.Box(nil), s.boxes...)
}

// Len returns the number of boxes in the working set.
func (s *Store) Len() int {
	return len(s.boxes)
}

// ClassCount returns the class count the store was loaded with.
func (s *Store) ClassCount() int {
	return s.classCount
}

// Revision increments on every Load, Apply, Undo and Redo.  Callers use
// it to track unflushed changes.
func (s *Store) Revision() uint64 {
	return s.revision
}

// UndoDepth returns the number of ops on the undo stack.
func (s *Store) UndoDepth() int {
	return s.hist.undoDepth()
}

// RedoDepth returns the number of ops on the redo stack.
func (s *Store) RedoDepth() int {
	return s.hist.redoDepth()
}
