package workspace

import (
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/store"
)

// Sync reconciles the annotation store against the labels directory:
// it loads label files on image switch and flushes pending edits back,
// including the auto-save on navigation.
type Sync struct {
	ws *Workspace
	st *store.Store

	// active is the image path currently loaded, empty when none
	active string
	// flushedRev is the store revision last written to disk, edits are
	// pending whenever the store has moved past it
	flushedRev uint64

	// pathMu serializes flushes per label path so no two writes to the
	// same file overlap
	mu     sync.Mutex
	pathMu map[string]*sync.Mutex
}

// NewSync returns a sync layer binding the workspace to the store.
func NewSync(ws *Workspace, st *store.Store) *Sync {
	return &Sync{
		ws:     ws,
		st:     st,
		pathMu: make(map[string]*sync.Mutex),
	}
}

// Active returns the image path currently loaded, or empty.
func (s *Sync) Active() string {
	return s.active
}

// Dirty reports whether the store holds edits not yet flushed.
func (s *Sync) Dirty() bool {
	return s.active != "" && s.st.Revision() != s.flushedRev
}

// SwitchTo flushes the active image's pending edits, then loads the
// label file for imagePath into the store.  An absent label file loads
// as an empty set.  History never carries across the switch.
func (s *Sync) SwitchTo(imagePath string) error {

	if s.Dirty() {
		if err := s.Flush(); err != nil {
			return err
		}
	}

	boxes, err := s.readLabels(imagePath)

	if err != nil {
		return err
	}

	s.st.Load(boxes, s.ws.Classes.Count())
	s.active = imagePath
	s.flushedRev = s.st.Revision()

	zap.L().Debug("image activated",
		zap.String("image", imagePath),
		zap.Int("boxes", len(boxes)))

	return nil
}

// readLabels loads the label file for an image.  Reads fall back to a
// .txt next to the image for flat legacy datasets; saves always go to
// the parallel labels/ tree.
func (s *Sync) readLabels(imagePath string) ([]labelkit.Box, error) {

	path := s.ws.LabelPath(imagePath)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {

		legacy := legacyLabelPath(imagePath)

		if _, err := os.Stat(legacy); err == nil {
			path = legacy
		} else {
			return nil, nil
		}
	}

	return ReadLabelFile(path, s.ws.Classes.Count())
}

// ApplyDetections merges detector output for imagePath into the store as
// one undoable step.  A result whose image no longer matches the active
// one is stale, it is logged and dropped without touching the store.
// The returned count is the number of boxes the merge added.
func (s *Sync) ApplyDetections(imagePath string, detected []labelkit.Box) (int, error) {

	if imagePath != s.active {
		zap.L().Info("stale detection result dropped",
			zap.String("image", imagePath),
			zap.String("active", s.active))
		return 0, nil
	}

	op := store.MergeDetections(s.st.Boxes(), detected, store.DuplicateTolerance)
	added := len(op.After) - len(op.Before)

	if err := s.st.Apply(op); err != nil {
		return 0, err
	}

	return added, nil
}

// Flush serializes the active image's boxes to its label file.  On
// failure the in-memory state is untouched so the caller can retry.
func (s *Sync) Flush() error {

	if s.active == "" {
		return nil
	}

	path := s.ws.LabelPath(s.active)
	rev := s.st.Revision()

	mu := s.lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	if err := WriteLabelFile(path, s.st.Boxes()); err != nil {
		return err
	}

	s.flushedRev = rev

	zap.L().Debug("labels flushed",
		zap.String("file", path),
		zap.Int("boxes", s.st.Len()))

	return nil
}

// Close flushes pending edits and detaches the active image.
func (s *Sync) Close() error {

	if s.Dirty() {
		if err := s.Flush(); err != nil {
			return err
		}
	}

	s.active = ""

	return nil
}

// lockFor returns the mutex serializing flushes for one label path.
func (s *Sync) lockFor(path string) *sync.Mutex {

	s.mu.Lock()
	defer s.mu.Unlock()

	mu, ok := s.pathMu[path]

	if !ok {
		mu = &sync.Mutex{}
		s.pathMu[path] = mu
	}

	return mu
}
