package detector

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/labelkit/go-labelkit/postprocess"
	"github.com/labelkit/go-labelkit/preprocess"
)

// DNNParams defines how the OpenCV DNN model is loaded and run.
type DNNParams struct {
	// ModelPath is the ONNX model file
	ModelPath string
	// InputWidth and InputHeight are the model input dimensions
	InputWidth  int
	InputHeight int
}

// DNNDefaultParams returns the parameters for a standard 640x640 model.
func DNNDefaultParams(modelPath string) DNNParams {
	return DNNParams{
		ModelPath:   modelPath,
		InputWidth:  640,
		InputHeight: 640,
	}
}

// DNN runs ONNX models through the OpenCV DNN backend.  Forward passes
// are serialized, the network is not reentrant.
type DNN struct {
	net    gocv.Net
	params DNNParams
	mu     sync.Mutex
}

// NewDNN loads the ONNX model from disk.
func NewDNN(p DNNParams) (*DNN, error) {

	if _, err := os.Stat(p.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", p.ModelPath)
	}

	net := gocv.ReadNetFromONNX(p.ModelPath)

	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %s", p.ModelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		return nil, fmt.Errorf("setting backend: %w", err)
	}

	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		return nil, fmt.Errorf("setting target: %w", err)
	}

	return &DNN{net: net, params: p}, nil
}

// InputSize returns the model input dimensions.
func (d *DNN) InputSize() (int, int) {
	return d.params.InputWidth, d.params.InputHeight
}

// Infer letterboxes the image to the model input size, runs a forward
// pass and copies the output into a tensor.
func (d *DNN) Infer(ctx context.Context, img image.Image,
	t *preprocess.Transform) (*postprocess.Tensor, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	boxed := preprocess.Letterbox(img, t, color.Gray{Y: 114})

	mat, err := gocv.ImageToMatRGB(boxed)

	if err != nil {
		return nil, fmt.Errorf("converting image: %w", err)
	}

	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0,
		image.Pt(d.params.InputWidth, d.params.InputHeight),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.net.SetInput(blob, "")

	out := d.net.Forward("")
	defer out.Close()

	return matToTensor(out)
}

// matToTensor copies the forward pass output into a tensor, collapsing
// a leading batch dimension of one.
func matToTensor(out gocv.Mat) (*postprocess.Tensor, error) {

	dims := out.Size()

	// [1 rows cols] or [rows cols]
	if len(dims) == 3 && dims[0] == 1 {
		dims = dims[1:]
	}

	if len(dims) != 2 {
		return nil, fmt.Errorf("unexpected output shape %v", out.Size())
	}

	data, err := out.DataPtrFloat32()

	if err != nil {
		return nil, fmt.Errorf("reading output: %w", err)
	}

	buf := make([]float32, len(data))
	copy(buf, data)

	return postprocess.NewTensor(buf, dims[0], dims[1])
}

// Close releases the network.
func (d *DNN) Close() error {
	return d.net.Close()
}
