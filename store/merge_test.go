package store

import (
	"testing"

	"github.com/labelkit/go-labelkit"
)

func TestMergeDetections(t *testing.T) {

	manual := box(0, 0.5, 0.5, 0.2, 0.2)
	current := []labelkit.Box{manual}

	detected := []labelkit.Box{
		box(0, 0.505, 0.495, 0.21, 0.19), // duplicate of the manual box
		box(1, 0.3, 0.3, 0.1, 0.1),       // new
		box(0, 0.8, 0.8, 0.1, 0.1),       // new, same class far away
	}

	op := MergeDetections(current, detected, DuplicateTolerance)

	if len(op.After) != 3 {
		t.Fatalf("after set has %d boxes, want 3: %+v", len(op.After), op.After)
	}

	// prior manual edits stay first
	if !op.After[0].Equal(manual) {
		t.Errorf("manual box displaced: %+v", op.After[0])
	}

	if !equalSets(op.Before, current) {
		t.Errorf("before set mismatch: %+v", op.Before)
	}
}

// An auto-annotate call with no surviving candidates still produces a
// valid, undoable BatchReplace.
func TestMergeNoDetections(t *testing.T) {

	s := newLoaded(2)

	op := MergeDetections(s.Boxes(), nil, 0)

	if err := s.Apply(op); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if s.Len() != 0 {
		t.Fatalf("len = %d", s.Len())
	}

	// the empty batch is still on the undo stack
	if !s.Undo() {
		t.Error("empty BatchReplace must still be undoable")
	}
}

// Auto-annotation arriving over unsaved manual edits keeps them and
// undoes as a single step.
func TestMergeLayersOverManualEdits(t *testing.T) {

	s := newLoaded(2)

	manual := box(0, 0.5, 0.5, 0.2, 0.2)
	s.Apply(Add{Box: manual})

	detected := []labelkit.Box{
		box(1, 0.3, 0.3, 0.1, 0.1),
		box(1, 0.7, 0.7, 0.1, 0.1),
	}

	if err := s.Apply(MergeDetections(s.Boxes(), detected, 0)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if s.Len() != 3 {
		t.Fatalf("len = %d, want 3", s.Len())
	}

	// one undo removes the whole auto-annotation batch, not single boxes
	s.Undo()

	if got := s.Boxes(); !equalSets(got, []labelkit.Box{manual}) {
		t.Errorf("after undo got %+v, want only the manual box", got)
	}
}

func TestClearAll(t *testing.T) {

	boxes := []labelkit.Box{
		box(0, 0.5, 0.5, 0.2, 0.2),
		box(1, 0.3, 0.3, 0.1, 0.1),
	}

	s := newLoaded(2, boxes...)

	if err := s.Apply(ClearAll(s.Boxes())); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if s.Len() != 0 {
		t.Fatalf("len = %d", s.Len())
	}

	s.Undo()

	if got := s.Boxes(); !equalSets(got, boxes) {
		t.Errorf("after undo got %+v", got)
	}
}

func TestClearClass(t *testing.T) {

	keep0 := box(0, 0.5, 0.5, 0.2, 0.2)
	keep1 := box(0, 0.2, 0.2, 0.1, 0.1)

	s := newLoaded(2,
		keep0,
		box(1, 0.3, 0.3, 0.1, 0.1),
		keep1,
		box(1, 0.7, 0.7, 0.1, 0.1),
	)

	if err := s.Apply(ClearClass(s.Boxes(), 1)); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if got := s.Boxes(); !equalSets(got, []labelkit.Box{keep0, keep1}) {
		t.Errorf("got %+v", got)
	}
}
