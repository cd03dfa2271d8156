// Package detector runs object detection models over workspace images
// and schedules inference jobs across a worker pool.
package detector

import (
	"context"
	"image"

	"github.com/labelkit/go-labelkit/postprocess"
	"github.com/labelkit/go-labelkit/preprocess"
)

// Detector runs one inference pass over a letterboxed image and returns
// the raw output tensor for decoding.  Implementations are safe for
// concurrent use.
type Detector interface {
	// Infer runs the model on img, letterboxed according to t, and
	// returns the raw output tensor.
	Infer(ctx context.Context, img image.Image, t *preprocess.Transform) (*postprocess.Tensor, error)
	// InputSize returns the model's input width and height.
	InputSize() (int, int)
	// Close releases the model resources.
	Close() error
}

// Func adapts a plain function to the Detector interface with a fixed
// input size.  Used for stubbing models in tests.
type Func struct {
	Width  int
	Height int
	Fn     func(ctx context.Context, img image.Image, t *preprocess.Transform) (*postprocess.Tensor, error)
}

func (f Func) Infer(ctx context.Context, img image.Image, t *preprocess.Transform) (*postprocess.Tensor, error) {
	return f.Fn(ctx, img, t)
}

func (f Func) InputSize() (int, int) {
	return f.Width, f.Height
}

func (f Func) Close() error {
	return nil
}
