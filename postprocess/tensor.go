package postprocess

import (
	"fmt"

	"github.com/x448/float16"
)

var f16LookupTable [65536]float32

func init() {
	// precompute float16 lookup table for faster conversion to float32
	for i := range f16LookupTable {
		f16 := float16.Frombits(uint16(i))
		f16LookupTable[i] = f16.Float32()
	}
}

// Tensor is a dense row-major float32 matrix holding one raw model output.
type Tensor struct {
	data []float32
	rows int
	cols int
}

// NewTensor wraps a float32 buffer as a rows x cols tensor.
func NewTensor(data []float32, rows, cols int) (*Tensor, error) {

	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("invalid tensor shape %dx%d", rows, cols)
	}

	if len(data) != rows*cols {
		return nil, fmt.Errorf("tensor shape %dx%d needs %d values, got %d",
			rows, cols, rows*cols, len(data))
	}

	return &Tensor{data: data, rows: rows, cols: cols}, nil
}

// NewTensorFromFloat16 decodes a little-endian FP16 buffer into a
// rows x cols tensor using the precomputed lookup table.
func NewTensorFromFloat16(buf []byte, rows, cols int) (*Tensor, error) {

	if len(buf) != rows*cols*2 {
		return nil, fmt.Errorf("tensor shape %dx%d needs %d bytes, got %d",
			rows, cols, rows*cols*2, len(buf))
	}

	data := make([]float32, rows*cols)

	for i := range data {
		bits := uint16(buf[i*2]) | uint16(buf[i*2+1])<<8
		data[i] = f16LookupTable[bits]
	}

	return NewTensor(data, rows, cols)
}

// Rows returns the number of tensor rows.
func (t *Tensor) Rows() int {
	return t.rows
}

// Cols returns the number of tensor columns.
func (t *Tensor) Cols() int {
	return t.cols
}

// At returns the value at row r, column c.
func (t *Tensor) At(r, c int) float32 {
	return t.data[r*t.cols+c]
}

// Row returns the slice holding row r.
func (t *Tensor) Row(r int) []float32 {
	return t.data[r*t.cols : (r+1)*t.cols]
}

// Transposed returns a new tensor with rows and columns swapped.  Models
// exported as [attributes, boxes] are reoriented through this before
// decoding.
func (t *Tensor) Transposed() *Tensor {

	data := make([]float32, len(t.data))

	for r := 0; r < t.rows; r++ {
		for c := 0; c < t.cols; c++ {
			data[c*t.rows+r] = t.data[r*t.cols+c]
		}
	}

	return &Tensor{data: data, rows: t.cols, cols: t.rows}
}
