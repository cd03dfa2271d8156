package store

// DefaultHistoryCap bounds each history stack; the oldest op is dropped
// when the cap is reached.
const DefaultHistoryCap = 50

// history holds the per-image undo and redo stacks.  Switching images
// resets it, history never carries across images.
type history struct {
	undo []EditOp
	redo []EditOp
	cap  int
}

func newHistory(cap int) *history {
	if cap <= 0 {
		cap = DefaultHistoryCap
	}
	return &history{cap: cap}
}

// record pushes a performed op onto the undo stack and clears redo.
func (h *history) record(op EditOp) {

	if len(h.undo) >= h.cap {
		h.undo = h.undo[1:]
	}

	h.undo = append(h.undo, op)
	h.redo = h.redo[:0]
}

// popUndo removes and returns the most recent op, moving it to the redo
// stack.
func (h *history) popUndo() (EditOp, bool) {

	if len(h.undo) == 0 {
		return nil, false
	}

	op := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	if len(h.redo) >= h.cap {
		h.redo = h.redo[1:]
	}

	h.redo = append(h.redo, op)

	return op, true
}

// popRedo removes and returns the most recently undone op, moving it
// back to the undo stack.
func (h *history) popRedo() (EditOp, bool) {

	if len(h.redo) == 0 {
		return nil, false
	}

	op := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, op)

	return op, true
}

// reset drops both stacks.
func (h *history) reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}

func (h *history) undoDepth() int {
	return len(h.undo)
}

func (h *history) redoDepth() int {
	return len(h.redo)
}
